package model

import (
	"strings"
)

// Field names a single entry of the registration form. The values match the
// JSON keys expected by the inscriptions endpoint.
type Field string

const (
	FieldName            Field = "name"
	FieldEmail           Field = "email"
	FieldPhone           Field = "phone"
	FieldCountry         Field = "country"
	FieldWillAttend      Field = "willAttend"
	FieldWillParticipate Field = "willParticipate"
	FieldAdditionalInfo  Field = "additionalInfo"
)

// IsText reports whether the field holds free text rather than a choice.
func (f Field) IsText() bool {
	switch f {
	case FieldName, FieldEmail, FieldPhone, FieldCountry, FieldAdditionalInfo:
		return true
	}
	return false
}

// IsChoice reports whether the field holds a yes/no choice.
func (f Field) IsChoice() bool {
	return f == FieldWillAttend || f == FieldWillParticipate
}

// Choice is a mutually exclusive yes/no answer. The zero value means unset.
type Choice string

const (
	ChoiceUnset Choice = ""
	ChoiceYes   Choice = "oui"
	ChoiceNo    Choice = "non"
)

// ParseChoice accepts the wire values as well as their English spellings.
func ParseChoice(s string) (Choice, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oui", "yes":
		return ChoiceYes, true
	case "non", "no":
		return ChoiceNo, true
	}
	return ChoiceUnset, false
}

// Activity is one of the selectable event activities, stored by its wire value.
type Activity string

const (
	ActivityParade       Activity = "défilé"
	ActivityPresentation Activity = "présentation"
	ActivityDance        Activity = "danse"
	ActivityFood         Activity = "cuisine"
	ActivitySinging      Activity = "chant"
	ActivitySlamPoetry   Activity = "slam"
)

// Activities is the fixed vocabulary, in display order.
var Activities = []Activity{
	ActivityParade,
	ActivityPresentation,
	ActivityDance,
	ActivityFood,
	ActivitySinging,
	ActivitySlamPoetry,
}

var activityTags = map[Activity]string{
	ActivityParade:       "parade",
	ActivityPresentation: "presentation",
	ActivityDance:        "dance",
	ActivityFood:         "food",
	ActivitySinging:      "singing",
	ActivitySlamPoetry:   "slam-poetry",
}

// Tag returns the ASCII identifier of the activity, used in callback data and
// in the event catalog.
func (a Activity) Tag() string {
	return activityTags[a]
}

// Valid reports whether a belongs to the vocabulary.
func (a Activity) Valid() bool {
	_, ok := activityTags[a]
	return ok
}

// ParseActivity resolves either a tag ("dance") or a wire value ("danse").
func ParseActivity(s string) (Activity, bool) {
	s = strings.TrimSpace(s)
	for a, tag := range activityTags {
		if s == tag || s == string(a) {
			return a, true
		}
	}
	return "", false
}

// RegistrationForm is the data collected by the wizard. Mutations return a new
// value and never alias the receiver's activity slice.
type RegistrationForm struct {
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Country            string     `json:"country"`
	WillAttend         Choice     `json:"willAttend"`
	WillParticipate    Choice     `json:"willParticipate"`
	SelectedActivities []Activity `json:"selectedActivities,omitempty"`
	AdditionalInfo     string     `json:"additionalInfo"`
}

// Clone returns a deep copy of f.
func (f RegistrationForm) Clone() RegistrationForm {
	if f.SelectedActivities != nil {
		f.SelectedActivities = append([]Activity(nil), f.SelectedActivities...)
	}
	return f
}

// IsEmpty reports whether every field still holds its initial value.
func (f RegistrationForm) IsEmpty() bool {
	return f.Name == "" && f.Email == "" && f.Phone == "" && f.Country == "" &&
		f.WillAttend == ChoiceUnset && f.WillParticipate == ChoiceUnset &&
		len(f.SelectedActivities) == 0 && f.AdditionalInfo == ""
}

// Text returns the value of a text field.
func (f RegistrationForm) Text(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldPhone:
		return f.Phone
	case FieldCountry:
		return f.Country
	case FieldAdditionalInfo:
		return f.AdditionalInfo
	}
	return ""
}

// WithText replaces a text field.
func (f RegistrationForm) WithText(field Field, value string) (RegistrationForm, error) {
	next := f.Clone()
	switch field {
	case FieldName:
		next.Name = value
	case FieldEmail:
		next.Email = value
	case FieldPhone:
		next.Phone = value
	case FieldCountry:
		next.Country = value
	case FieldAdditionalInfo:
		next.AdditionalInfo = value
	default:
		return f, ErrUnknownField
	}
	return next, nil
}

// WithChoice replaces willAttend or willParticipate.
func (f RegistrationForm) WithChoice(field Field, c Choice) (RegistrationForm, error) {
	next := f.Clone()
	switch field {
	case FieldWillAttend:
		next.WillAttend = c
	case FieldWillParticipate:
		next.WillParticipate = c
	default:
		return f, ErrUnknownField
	}
	return next, nil
}

// Has reports whether a is selected.
func (f RegistrationForm) Has(a Activity) bool {
	for _, s := range f.SelectedActivities {
		if s == a {
			return true
		}
	}
	return false
}

// Toggle adds a when absent and removes it when present. The second result is
// the membership of a after the toggle.
func (f RegistrationForm) Toggle(a Activity) (RegistrationForm, bool, error) {
	if !a.Valid() {
		return f, false, ErrUnknownActivity
	}
	next := f.Clone()
	if !f.Has(a) {
		next.SelectedActivities = append(next.SelectedActivities, a)
		return next, true, nil
	}
	kept := make([]Activity, 0, len(f.SelectedActivities))
	for _, s := range f.SelectedActivities {
		if s != a {
			kept = append(kept, s)
		}
	}
	next.SelectedActivities = kept
	return next, false, nil
}

// IsBlank reports whether s is empty once surrounding whitespace is removed.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// ValidateForSubmission checks the fields the endpoint requires.
func (f RegistrationForm) ValidateForSubmission() error {
	var missing []Field
	if IsBlank(f.Name) {
		missing = append(missing, FieldName)
	}
	if IsBlank(f.Email) {
		missing = append(missing, FieldEmail)
	}
	if f.WillAttend == ChoiceUnset {
		missing = append(missing, FieldWillAttend)
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// SubmissionPayload is the JSON body posted to the inscriptions endpoint.
type SubmissionPayload struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Country            string `json:"country"`
	WillAttend         Choice `json:"willAttend"`
	WillParticipate    Choice `json:"willParticipate"`
	SelectedActivities string `json:"selected_activities"`
	AdditionalInfo     string `json:"additionalInfo"`
}

// ToPayload flattens the activity set into a ", " separated string.
func (f RegistrationForm) ToPayload() SubmissionPayload {
	values := make([]string, 0, len(f.SelectedActivities))
	for _, a := range f.SelectedActivities {
		values = append(values, string(a))
	}
	return SubmissionPayload{
		Name:               f.Name,
		Email:              f.Email,
		Phone:              f.Phone,
		Country:            f.Country,
		WillAttend:         f.WillAttend,
		WillParticipate:    f.WillParticipate,
		SelectedActivities: strings.Join(values, ", "),
		AdditionalInfo:     f.AdditionalInfo,
	}
}
