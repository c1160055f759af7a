package model

import "time"

// UserState is the persisted snapshot of one chat's registration session.
type UserState struct {
	ChatID     int64             `json:"chatID"`
	Step       int               `json:"step"`
	Form       RegistrationForm  `json:"form"`
	Awaiting   Field             `json:"awaiting,omitempty"`   // text field the next reply fills
	FailedForm *RegistrationForm `json:"failedForm,omitempty"` // snapshot offered for retry
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// IsIdle reports whether there is nothing worth keeping in the session.
func (s UserState) IsIdle() bool {
	return s.Step <= 1 && s.Form.IsEmpty() && s.Awaiting == "" && s.FailedForm == nil
}
