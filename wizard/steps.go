package wizard

import (
	"fmt"

	"CulturalDayBot/model"
)

// Step is the position of the wizard cursor.
type Step int

const (
	// StepSubmit is returned by NextStep when the forward action is submission.
	StepSubmit Step = iota
	StepIdentity
	StepAttendance
	StepActivities
)

func (s Step) String() string {
	switch s {
	case StepSubmit:
		return "submit"
	case StepIdentity:
		return "identity"
	case StepAttendance:
		return "attendance"
	case StepActivities:
		return "activities"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Action is what the forward control does at a given step.
type Action int

const (
	ActionNext Action = iota
	ActionSubmit
)

// TotalSteps is the number of steps shown to the user for form.
func TotalSteps(form model.RegistrationForm) int {
	if participates(form) {
		return 3
	}
	return 2
}

// ForwardAction reports whether the forward control at step advances or submits.
func ForwardAction(step Step, form model.RegistrationForm) Action {
	switch {
	case step >= StepActivities:
		return ActionSubmit
	case step == StepAttendance && (form.WillAttend == model.ChoiceNo || form.WillParticipate == model.ChoiceNo):
		return ActionSubmit
	}
	return ActionNext
}

// NextStep applies the gate of current to form. It returns StepSubmit when
// current is the last reachable step.
func NextStep(current Step, form model.RegistrationForm) (Step, error) {
	switch current {
	case StepIdentity:
		var missing []model.Field
		if model.IsBlank(form.Name) {
			missing = append(missing, model.FieldName)
		}
		if model.IsBlank(form.Email) {
			missing = append(missing, model.FieldEmail)
		}
		if len(missing) > 0 {
			return current, &model.ValidationError{Missing: missing}
		}
		return StepAttendance, nil
	case StepAttendance:
		switch form.WillAttend {
		case model.ChoiceUnset:
			return current, &model.ValidationError{Missing: []model.Field{model.FieldWillAttend}}
		case model.ChoiceNo:
			return StepSubmit, nil
		}
		switch form.WillParticipate {
		case model.ChoiceUnset:
			return current, &model.ValidationError{Missing: []model.Field{model.FieldWillParticipate}}
		case model.ChoiceNo:
			return StepSubmit, nil
		}
		return StepActivities, nil
	case StepActivities:
		return StepSubmit, nil
	}
	return current, fmt.Errorf("unknown step %d", int(current))
}

// PreviousStep never validates.
func PreviousStep(current Step) (Step, error) {
	if current <= StepIdentity {
		return StepIdentity, model.ErrNoPreviousStep
	}
	return current - 1, nil
}

func participates(form model.RegistrationForm) bool {
	return form.WillAttend == model.ChoiceYes && form.WillParticipate == model.ChoiceYes
}
