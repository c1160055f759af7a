package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"CulturalDayBot/model"

	"github.com/getsentry/sentry-go"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

// Messenger is the part of *bot.Bot the handler uses.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
}

// chatNotifier turns wizard notifications into chat messages for one chat.
type chatNotifier struct {
	messenger Messenger
	chatID    int64
	event     model.EventInfo
}

func (n *chatNotifier) FieldSelected(ctx context.Context, field model.Field, choice model.Choice) {
	n.send(ctx, fmt.Sprintf("Option %s sélectionnée : %s", fieldLabels[field], choiceText(choice)), nil)
}

func (n *chatNotifier) ActivityToggled(ctx context.Context, a model.Activity, selected bool) {
	state := "désélectionnée"
	if selected {
		state = "sélectionnée"
	}
	n.send(ctx, fmt.Sprintf("Activité %s %s", n.event.ActivityTitle(a), state), nil)
}

func (n *chatNotifier) ValidationFailed(ctx context.Context, err *model.ValidationError) {
	n.send(ctx, validationText(err), nil)
}

func (n *chatNotifier) SubmitSucceeded(ctx context.Context) {
	n.send(ctx, "Inscription confirmée\nVotre participation a bien été enregistrée. Un email de confirmation vous sera envoyé.", nil)
}

func (n *chatNotifier) SubmitFailed(ctx context.Context, err error) {
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		hub := sentry.CurrentHub().Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("chat_id", strconv.FormatInt(n.chatID, 10))
		})
		hub.CaptureException(err)
	}
	n.send(ctx, "Inscription échouée\n"+failureText(err), retryKeyboard())
}

func (n *chatNotifier) send(ctx context.Context, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := n.messenger.SendMessage(ctx, params); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("error sending message")
	}
}
