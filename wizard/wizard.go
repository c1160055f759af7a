// Package wizard holds the registration form and drives it through the
// identity, attendance and activity steps up to submission.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"CulturalDayBot/model"

	"github.com/rs/zerolog"
)

// Submitter delivers a payload to the inscriptions endpoint.
type Submitter interface {
	Submit(ctx context.Context, payload model.SubmissionPayload) error
}

// State is a point-in-time copy of the wizard, used for persistence.
type State struct {
	Step   Step
	Form   model.RegistrationForm
	Failed *model.RegistrationForm
}

// Wizard is safe for concurrent use. At most one submission is outstanding
// at any time.
type Wizard struct {
	submitter Submitter
	notifier  Notifier

	mu         sync.Mutex
	form       model.RegistrationForm
	step       Step
	submitting bool
	lastFailed *model.RegistrationForm
}

// New returns a wizard at step 1 with an empty form.
func New(submitter Submitter, notifier Notifier) *Wizard {
	return Restore(submitter, notifier, State{})
}

// Restore rebuilds a wizard from a persisted State. Out of range steps fall
// back to step 1.
func Restore(submitter Submitter, notifier Notifier, s State) *Wizard {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	w := &Wizard{
		submitter: submitter,
		notifier:  notifier,
		form:      s.Form.Clone(),
		step:      s.Step,
	}
	if w.step < StepIdentity || w.step > StepActivities {
		w.step = StepIdentity
	}
	if w.step == StepActivities && TotalSteps(w.form) < 3 {
		w.step = StepAttendance
	}
	if s.Failed != nil {
		failed := s.Failed.Clone()
		w.lastFailed = &failed
	}
	return w
}

// State returns a copy of the persistent part of the wizard.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := State{Step: w.step, Form: w.form.Clone()}
	if w.lastFailed != nil {
		failed := w.lastFailed.Clone()
		s.Failed = &failed
	}
	return s
}

func (w *Wizard) Form() model.RegistrationForm {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form.Clone()
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Submitting reports whether a submission is outstanding.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// CanRetry reports whether a failed snapshot is waiting for Retry.
func (w *Wizard) CanRetry() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastFailed != nil
}

func (w *Wizard) TotalSteps() int {
	return TotalSteps(w.Form())
}

// ForwardAction reports what the forward control does at the current step.
func (w *Wizard) ForwardAction() Action {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ForwardAction(w.step, w.form)
}

// SetText replaces a text field. No validation happens here.
func (w *Wizard) SetText(ctx context.Context, field model.Field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, err := w.form.WithText(field, value)
	if err != nil {
		return fmt.Errorf("error setting %s: %w", field, err)
	}
	w.form = next
	zerolog.Ctx(ctx).Debug().Str("field", string(field)).Msg("field updated")
	return nil
}

// Choose replaces willAttend or willParticipate and notifies the selection.
func (w *Wizard) Choose(ctx context.Context, field model.Field, choice model.Choice) error {
	w.mu.Lock()
	next, err := w.form.WithChoice(field, choice)
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("error choosing %s: %w", field, err)
	}
	w.form = next
	if w.step == StepActivities && TotalSteps(w.form) < 3 {
		w.step = StepAttendance
	}
	w.mu.Unlock()

	zerolog.Ctx(ctx).Debug().Str("field", string(field)).Str("value", string(choice)).Msg("choice selected")
	w.notifier.FieldSelected(ctx, field, choice)
	return nil
}

// ToggleActivity flips the membership of a and returns the new membership.
func (w *Wizard) ToggleActivity(ctx context.Context, a model.Activity) (bool, error) {
	w.mu.Lock()
	next, selected, err := w.form.Toggle(a)
	if err != nil {
		w.mu.Unlock()
		return false, fmt.Errorf("error toggling %q: %w", a, err)
	}
	w.form = next
	w.mu.Unlock()

	w.notifier.ActivityToggled(ctx, a, selected)
	return selected, nil
}

// Next advances past the current step's gate. A rejected gate leaves the step
// unchanged, notifies ValidationFailed and returns the *model.ValidationError.
// At the last reachable step it returns model.ErrNoNextStep.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	next, err := NextStep(w.step, w.form)
	if err == nil && next == StepSubmit {
		err = model.ErrNoNextStep
	}
	if err == nil {
		w.step = next
	}
	w.mu.Unlock()

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		zerolog.Ctx(ctx).Info().Strs("missing", fieldNames(verr.Missing)).Msg("step gate rejected")
		w.notifier.ValidationFailed(ctx, verr)
	}
	return err
}

// Back moves to the previous step without validation.
func (w *Wizard) Back(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, err := PreviousStep(w.step)
	w.step = prev
	return err
}

// Forward runs Next or Submit depending on ForwardAction.
func (w *Wizard) Forward(ctx context.Context) error {
	if w.ForwardAction() == ActionSubmit {
		return w.Submit(ctx)
	}
	return w.Next(ctx)
}

// Submit posts the current form. The outcome is also delivered to the
// Notifier. A concurrent call while a submission is outstanding returns
// model.ErrSubmissionInProgress without touching the network.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return model.ErrSubmissionInProgress
	}
	snapshot := w.form.Clone()
	w.submitting = true
	w.mu.Unlock()

	return w.submit(ctx, snapshot)
}

// Retry re-submits the snapshot of the last failed submission.
func (w *Wizard) Retry(ctx context.Context) error {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return model.ErrSubmissionInProgress
	}
	if w.lastFailed == nil {
		w.mu.Unlock()
		return model.ErrNothingToRetry
	}
	snapshot := w.lastFailed.Clone()
	w.submitting = true
	w.mu.Unlock()

	return w.submit(ctx, snapshot)
}

// submit expects w.submitting to be set by the caller.
func (w *Wizard) submit(ctx context.Context, snapshot model.RegistrationForm) error {
	settled := false
	defer func() {
		if !settled {
			w.clearSubmitting()
		}
	}()

	logger := zerolog.Ctx(ctx)
	err := snapshot.ValidateForSubmission()
	if err == nil {
		err = w.submitter.Submit(ctx, snapshot.ToPayload())
	}

	w.mu.Lock()
	w.submitting = false
	settled = true
	if err != nil {
		w.lastFailed = &snapshot
	} else {
		w.form = model.RegistrationForm{}
		w.step = StepIdentity
		w.lastFailed = nil
	}
	w.mu.Unlock()

	if err != nil {
		logger.Warn().Err(err).Msg("registration submission failed")
		w.notifier.SubmitFailed(ctx, err)
		return err
	}
	logger.Info().Msg("registration submitted")
	w.notifier.SubmitSucceeded(ctx)
	return nil
}

// clearSubmitting releases the busy flag when the submitter panics.
func (w *Wizard) clearSubmitting() {
	w.mu.Lock()
	w.submitting = false
	w.mu.Unlock()
}

func fieldNames(fields []model.Field) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, string(f))
	}
	return names
}
