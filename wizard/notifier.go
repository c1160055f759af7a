package wizard

import (
	"context"

	"CulturalDayBot/model"
)

// Notifier receives the user-facing outcomes of wizard operations.
type Notifier interface {
	FieldSelected(ctx context.Context, field model.Field, choice model.Choice)
	ActivityToggled(ctx context.Context, activity model.Activity, selected bool)
	ValidationFailed(ctx context.Context, err *model.ValidationError)
	SubmitSucceeded(ctx context.Context)
	// SubmitFailed is expected to offer a retry control wired to Wizard.Retry.
	SubmitFailed(ctx context.Context, err error)
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) FieldSelected(context.Context, model.Field, model.Choice) {}
func (NopNotifier) ActivityToggled(context.Context, model.Activity, bool) {}
func (NopNotifier) ValidationFailed(context.Context, *model.ValidationError) {}
func (NopNotifier) SubmitSucceeded(context.Context) {}
func (NopNotifier) SubmitFailed(context.Context, error) {}
