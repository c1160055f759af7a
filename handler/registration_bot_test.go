package handler

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"CulturalDayBot/model"
	"CulturalDayBot/repo"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testChatID int64 = 1001

type fakeMessenger struct {
	mu       sync.Mutex
	sent     []*bot.SendMessageParams
	answered []*bot.AnswerCallbackQueryParams
}

func (f *fakeMessenger) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, params)
	return &models.Message{}, nil
}

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, params *bot.AnswerCallbackQueryParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, params)
	return true, nil
}

func (f *fakeMessenger) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, p := range f.sent {
		out = append(out, p.Text)
	}
	return out
}

func (f *fakeMessenger) last() *bot.SendMessageParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.answered = nil
}

func (f *fakeMessenger) anyTextContains(substr string) bool {
	for _, text := range f.texts() {
		if strings.Contains(text, substr) {
			return true
		}
	}
	return false
}

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []model.SubmissionPayload
	err      error
}

func (f *fakeSubmitter) Submit(_ context.Context, payload model.SubmissionPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakeSubmitter) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSubmitter) calls() []model.SubmissionPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.SubmissionPayload(nil), f.payloads...)
}

func hasButton(params *bot.SendMessageParams, data string) bool {
	if params == nil {
		return false
	}
	kb, ok := params.ReplyMarkup.(*models.InlineKeyboardMarkup)
	if !ok {
		return false
	}
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData == data {
				return true
			}
		}
	}
	return false
}

func textUpdate(text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			Chat: models.Chat{ID: testChatID},
			From: &models.User{ID: testChatID, FirstName: "Alice"},
			Text: text,
		},
	}
}

func callbackUpdate(data string) *models.Update {
	return &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:      "cb-" + data,
			From:    models.User{ID: testChatID},
			Message: models.MaybeInaccessibleMessage{Message: &models.Message{Chat: models.Chat{ID: testChatID}}},
			Data:    data,
		},
	}
}

type harness struct {
	handler   *RegistrationBotHandler
	messenger *fakeMessenger
	submitter *fakeSubmitter
	store     *repo.MemorySessionStore
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	event, err := model.DefaultEventInfo()
	require.NoError(t, err)

	h := &harness{
		messenger: &fakeMessenger{},
		submitter: &fakeSubmitter{},
		store:     repo.NewMemorySessionStore(),
	}
	opts = append([]Option{WithRateLimit(rate.Inf, 1)}, opts...)
	h.handler = NewRegistrationBotHandler(h.messenger, h.submitter, h.store, event, opts...)
	return h
}

func (h *harness) do(updates ...*models.Update) {
	for _, u := range updates {
		h.handler.Handle(context.Background(), u)
	}
}

// fillIdentity walks step 1 with the sequential prompts.
func (h *harness) fillIdentity() {
	h.do(
		textUpdate("/register"),
		textUpdate("Alice"),
		textUpdate("a@x.com"),
		textUpdate("/skip"),
		textUpdate("/skip"),
	)
}

func TestRegistration_NotAttendingSubmitsFromStepTwo(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.do(textUpdate("/register"))
	assert.Contains(t, h.messenger.last().Text, "Quel est votre nom complet ?")
	assert.Contains(t, h.messenger.last().Text, "Étape 1 sur 2")

	h.do(textUpdate("Alice"))
	assert.Contains(t, h.messenger.last().Text, "adresse email")
	h.do(textUpdate("a@x.com"))
	assert.Contains(t, h.messenger.last().Text, "téléphone")
	h.do(textUpdate("+221 77 000 00 00"))
	assert.Contains(t, h.messenger.last().Text, "pays")
	h.do(textUpdate("/skip"))
	require.True(t, hasButton(h.messenger.last(), "nav:next"))

	h.do(callbackUpdate("nav:next"))
	assert.Contains(t, h.messenger.last().Text, "Étape 2 sur 2")
	require.True(t, hasButton(h.messenger.last(), "attend:non"))

	h.messenger.reset()
	h.do(callbackUpdate("attend:non"))
	assert.True(t, h.messenger.anyTextContains("Option Présence sélectionnée : Non"))
	require.True(t, hasButton(h.messenger.last(), "nav:submit"))
	assert.False(t, hasButton(h.messenger.last(), "nav:next"))
	assert.False(t, hasButton(h.messenger.last(), "participate:oui"), "participation is only asked when attending")

	h.do(callbackUpdate("nav:submit"))

	calls := h.submitter.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Alice", calls[0].Name)
	assert.Equal(t, "a@x.com", calls[0].Email)
	assert.Equal(t, "+221 77 000 00 00", calls[0].Phone)
	assert.Equal(t, model.ChoiceNo, calls[0].WillAttend)
	assert.True(t, h.messenger.anyTextContains("Inscription confirmée"))

	_, err := h.store.ReadSession(context.Background(), testChatID)
	require.ErrorIs(t, err, model.ErrSessionDoesNotExist, "a submitted session is not kept")

	h.messenger.mu.Lock()
	answered := len(h.messenger.answered)
	h.messenger.mu.Unlock()
	assert.Equal(t, 2, answered, "every callback since the last reset is answered")
}

func TestRegistration_ActivitiesPath(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.fillIdentity()
	h.do(
		callbackUpdate("nav:next"),
		callbackUpdate("attend:oui"),
	)
	require.True(t, hasButton(h.messenger.last(), "participate:oui"))
	require.True(t, hasButton(h.messenger.last(), "nav:next"))

	// step 3 is not offered before participation is answered
	h.messenger.reset()
	h.do(callbackUpdate("nav:next"))
	assert.True(t, h.messenger.anyTextContains("Confirmation requise"))

	h.do(
		callbackUpdate("participate:oui"),
		callbackUpdate("nav:next"),
	)
	assert.Contains(t, h.messenger.last().Text, "Étape 3 sur 3")
	require.True(t, hasButton(h.messenger.last(), "activity:dance"))

	h.messenger.reset()
	h.do(
		callbackUpdate("activity:dance"),
		callbackUpdate("activity:singing"),
		callbackUpdate("activity:food"),
		callbackUpdate("activity:food"),
	)
	assert.True(t, h.messenger.anyTextContains("Activité Danses traditionnelles sélectionnée"))
	assert.True(t, h.messenger.anyTextContains("Activité Stand culinaire désélectionnée"))
	assert.Contains(t, h.messenger.last().Text, "2 activité(s) sélectionnée(s)")

	h.do(textUpdate("/submit"))

	calls := h.submitter.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "danse, chant", calls[0].SelectedActivities)
	assert.Equal(t, model.ChoiceYes, calls[0].WillParticipate)
}

func TestRegistration_IdentityGateWarns(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.do(textUpdate("/register"))
	h.messenger.reset()
	h.do(textUpdate("/next"))

	assert.True(t, h.messenger.anyTextContains("Informations requises"))
	assert.Contains(t, h.messenger.last().Text, "Quel est votre nom complet ?")
	assert.Empty(t, h.submitter.calls())

	state, err := h.store.ReadSession(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Step)
	assert.Equal(t, model.FieldName, state.Awaiting)
}

func TestRegistration_SubmitRefusedBeforeLastStep(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.fillIdentity()
	h.messenger.reset()
	h.do(textUpdate("/submit"))

	assert.True(t, h.messenger.anyTextContains("compléter les étapes"))
	assert.Empty(t, h.submitter.calls())
}

func TestRegistration_ServerErrorOffersRetry(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.submitter.setErr(&model.ServerError{StatusCode: 500})

	h.fillIdentity()
	h.do(
		callbackUpdate("nav:next"),
		callbackUpdate("attend:oui"),
		callbackUpdate("participate:non"),
	)
	h.messenger.reset()
	h.do(callbackUpdate("nav:submit"))

	assert.True(t, h.messenger.anyTextContains("Erreur serveur (500)"))
	require.True(t, hasButton(h.messenger.last(), "nav:retry"))

	state, err := h.store.ReadSession(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", state.Form.Name, "form data is kept after a failure")
	require.NotNil(t, state.FailedForm)

	h.submitter.setErr(nil)
	h.messenger.reset()
	h.do(callbackUpdate("nav:retry"))

	calls := h.submitter.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, calls[0], calls[1])
	assert.True(t, h.messenger.anyTextContains("Inscription confirmée"))

	h.messenger.reset()
	h.do(textUpdate("/retry"))
	assert.True(t, h.messenger.anyTextContains("Aucun envoi à réessayer"))
}

func TestRegistration_ApplicationErrorShowsServerMessage(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.submitter.setErr(&model.ApplicationError{Message: "Email déjà inscrit"})

	h.fillIdentity()
	h.do(callbackUpdate("nav:next"), callbackUpdate("attend:non"))
	h.messenger.reset()
	h.do(callbackUpdate("nav:submit"))

	assert.True(t, h.messenger.anyTextContains("Email déjà inscrit"))
}

func TestRegistration_EditFieldReturnsToCard(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.do(
		textUpdate("/register"),
		textUpdate("Alice"),
		textUpdate("a@x.com"),
		textUpdate("0600000000"),
		textUpdate("Mali"),
	)
	require.True(t, hasButton(h.messenger.last(), "edit:name"))

	h.do(callbackUpdate("edit:name"))
	assert.Contains(t, h.messenger.last().Text, "nom complet")
	h.do(textUpdate("Alice Diallo"))
	require.True(t, hasButton(h.messenger.last(), "nav:next"))
	assert.Contains(t, h.messenger.last().Text, "Alice Diallo")
}

func TestRegistration_RequiredFieldCannotBeSkipped(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.do(textUpdate("/register"))
	h.messenger.reset()
	h.do(textUpdate("/skip"))

	assert.True(t, h.messenger.anyTextContains("Ce champ est obligatoire."))
	assert.Contains(t, h.messenger.last().Text, "nom complet")
}

func TestRegistration_RestoresSessionFromStore(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.store.SaveSession(context.Background(), model.UserState{
		ChatID: testChatID,
		Step:   2,
		Form:   model.RegistrationForm{Name: "Alice", Email: "a@x.com", WillAttend: model.ChoiceYes, WillParticipate: model.ChoiceYes},
	}))

	h.do(textUpdate("/status"))
	assert.Contains(t, h.messenger.last().Text, "Étape 2 sur 3")
	assert.Contains(t, h.messenger.last().Text, "Alice")

	h.do(callbackUpdate("nav:back"))
	assert.Contains(t, h.messenger.last().Text, "Étape 1 sur 3")
}

func TestRegistration_FloodGuardDropsUpdates(t *testing.T) {
	t.Parallel()
	h := newHarness(t, WithRateLimit(rate.Every(time.Hour), 1))

	h.do(textUpdate("/help"))
	require.Len(t, h.messenger.texts(), 1)

	h.do(textUpdate("/help"), callbackUpdate("nav:next"))
	assert.Len(t, h.messenger.texts(), 1)

	h.messenger.mu.Lock()
	defer h.messenger.mu.Unlock()
	require.Len(t, h.messenger.answered, 1)
	assert.NotEmpty(t, h.messenger.answered[0].Text)
}

func TestRegistration_UnknownInput(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.do(textUpdate("bonjour"))
	assert.Contains(t, h.messenger.last().Text, "/register")

	h.do(textUpdate("/dance"))
	assert.Contains(t, h.messenger.last().Text, "/help")

	h.do(callbackUpdate("garbage"), callbackUpdate("activity:karaoke"))
	h.messenger.mu.Lock()
	defer h.messenger.mu.Unlock()
	require.Len(t, h.messenger.answered, 2)
	assert.Equal(t, "Action inconnue.", h.messenger.answered[0].Text)
	assert.Equal(t, "Activité inconnue.", h.messenger.answered[1].Text)
}

func TestRegistration_StartShowsEventBanner(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.do(textUpdate("/start"))
	text := h.messenger.last().Text
	assert.Contains(t, text, "Bonjour Alice")
	assert.Contains(t, text, "Journée Culturelle")
	assert.Contains(t, text, "11 Mai 2025")

	h.do(textUpdate("/activities"))
	assert.Contains(t, h.messenger.last().Text, "Slam / Poésie")
}
