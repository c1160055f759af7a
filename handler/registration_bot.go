package handler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"CulturalDayBot/model"
	"CulturalDayBot/repo"
	"CulturalDayBot/wizard"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RegistrationBotHandler runs one registration wizard per chat.
type RegistrationBotHandler struct {
	messenger Messenger
	submitter wizard.Submitter
	store     repo.SessionStore
	event     model.EventInfo
	logger    zerolog.Logger
	limit     rate.Limit
	burst     int

	mu       sync.Mutex
	sessions map[int64]*session
}

type session struct {
	chatID  int64
	wizard  *wizard.Wizard
	limiter *rate.Limiter

	mu       sync.Mutex
	awaiting model.Field
}

func (s *session) Awaiting() model.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

func (s *session) setAwaiting(f model.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaiting = f
}

func (s *session) userState() model.UserState {
	ws := s.wizard.State()
	return model.UserState{
		ChatID:     s.chatID,
		Step:       int(ws.Step),
		Form:       ws.Form,
		Awaiting:   s.Awaiting(),
		FailedForm: ws.Failed,
		UpdatedAt:  time.Now().UTC(),
	}
}

type Option func(*RegistrationBotHandler)

// WithRateLimit sets the per-chat flood guard for incoming updates.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(h *RegistrationBotHandler) {
		h.limit = limit
		h.burst = burst
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(h *RegistrationBotHandler) {
		h.logger = logger
	}
}

func NewRegistrationBotHandler(
	messenger Messenger,
	submitter wizard.Submitter,
	store repo.SessionStore,
	event model.EventInfo,
	opts ...Option,
) *RegistrationBotHandler {
	h := &RegistrationBotHandler{
		messenger: messenger,
		submitter: submitter,
		store:     store,
		event:     event,
		logger:    zerolog.Nop(),
		limit:     rate.Limit(2),
		burst:     5,
		sessions:  make(map[int64]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handler matches bot.HandlerFunc.
func (h *RegistrationBotHandler) Handler(ctx context.Context, _ *bot.Bot, update *models.Update) {
	h.Handle(ctx, update)
}

// Handle processes one update.
func (h *RegistrationBotHandler) Handle(ctx context.Context, update *models.Update) {
	var chatID int64
	switch {
	case update.Message != nil:
		chatID = update.Message.Chat.ID
	case update.CallbackQuery != nil:
		chatID = callbackChatID(update.CallbackQuery)
	default:
		return
	}

	logger := h.logger.With().Int64("chat_id", chatID).Logger()
	ctx = logger.WithContext(ctx)

	s := h.sessionFor(ctx, chatID)
	if !s.limiter.Allow() {
		logger.Warn().Msg("update dropped by flood guard")
		if update.CallbackQuery != nil {
			h.answer(ctx, update.CallbackQuery.ID, "Doucement, une action à la fois.")
		}
		return
	}

	if update.Message != nil {
		logger.Debug().Str("text", update.Message.Text).Msg("message received")
		h.handleMessage(ctx, s, update.Message)
	} else {
		logger.Debug().Str("data", update.CallbackQuery.Data).Msg("callback received")
		h.handleCallback(ctx, s, update.CallbackQuery)
	}
	h.persist(ctx, s)
}

func callbackChatID(cq *models.CallbackQuery) int64 {
	if cq.Message.Message != nil {
		return cq.Message.Message.Chat.ID
	}
	return cq.From.ID
}

// sessionFor returns the chat's session, restoring it from the store on first use.
func (h *RegistrationBotHandler) sessionFor(ctx context.Context, chatID int64) *session {
	h.mu.Lock()
	s, ok := h.sessions[chatID]
	h.mu.Unlock()
	if ok {
		return s
	}

	var restored wizard.State
	var awaiting model.Field
	state, err := h.store.ReadSession(ctx, chatID)
	switch {
	case err == nil:
		restored = wizard.State{Step: wizard.Step(state.Step), Form: state.Form, Failed: state.FailedForm}
		awaiting = state.Awaiting
	case errors.Is(err, model.ErrSessionDoesNotExist):
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("error reading session, starting fresh")
	}

	notifier := &chatNotifier{messenger: h.messenger, chatID: chatID, event: h.event}
	s = &session{
		chatID:   chatID,
		wizard:   wizard.Restore(h.submitter, notifier, restored),
		limiter:  rate.NewLimiter(h.limit, h.burst),
		awaiting: awaiting,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.sessions[chatID]; ok {
		return existing
	}
	h.sessions[chatID] = s
	return s
}

func (h *RegistrationBotHandler) persist(ctx context.Context, s *session) {
	state := s.userState()
	var err error
	if state.IsIdle() {
		err = h.store.DeleteSession(ctx, s.chatID)
	} else {
		err = h.store.SaveSession(ctx, state)
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("error persisting session")
	}
}

func (h *RegistrationBotHandler) handleMessage(ctx context.Context, s *session, msg *models.Message) {
	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, s, msg, text)
		return
	}

	field := s.Awaiting()
	if field == "" {
		h.send(ctx, s.chatID, "Je n'ai pas compris. Utilisez /register pour vous inscrire ou /help pour l'aide.", nil)
		return
	}
	if text == "" {
		h.prompt(ctx, s, field)
		return
	}
	if err := s.wizard.SetText(ctx, field, text); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("error setting field")
		s.setAwaiting("")
		h.render(ctx, s)
		return
	}
	h.advanceAwaiting(ctx, s, field)
}

func (h *RegistrationBotHandler) handleCommand(ctx context.Context, s *session, msg *models.Message, text string) {
	command, _, _ := strings.Cut(strings.Fields(text)[0], "@")

	switch command {
	case "/start":
		username := ""
		if msg.From != nil {
			username = msg.From.Username
			if username == "" {
				username = msg.From.FirstName
			}
		}
		h.send(ctx, s.chatID, welcomeText(username, h.event), nil)
	case "/help":
		h.send(ctx, s.chatID, helpText, nil)
	case "/activities":
		h.send(ctx, s.chatID, activitiesText(h.event), nil)
	case "/register":
		if s.wizard.Step() == wizard.StepIdentity && s.wizard.Form().IsEmpty() && s.Awaiting() == "" {
			s.setAwaiting(model.FieldName)
		}
		h.render(ctx, s)
	case "/status":
		h.send(ctx, s.chatID, statusText(s.wizard.Step(), s.wizard.Form(), h.event, s.wizard.Submitting()), nil)
	case "/next":
		h.next(ctx, s)
	case "/back":
		h.back(ctx, s)
	case "/submit":
		h.submit(ctx, s)
	case "/retry":
		h.retry(ctx, s)
	case "/skip":
		field := s.Awaiting()
		switch {
		case field == "":
			h.send(ctx, s.chatID, "Aucun champ à passer.", nil)
		case !optionalField(field):
			h.send(ctx, s.chatID, "Ce champ est obligatoire.", nil)
			h.prompt(ctx, s, field)
		default:
			h.advanceAwaiting(ctx, s, field)
		}
	default:
		h.send(ctx, s.chatID, "Je n'ai pas compris cette commande. Utilisez /start ou /help.", nil)
	}
}

func (h *RegistrationBotHandler) handleCallback(ctx context.Context, s *session, cq *models.CallbackQuery) {
	kind, value, ok := parseCallbackData(cq.Data)
	if !ok {
		h.answer(ctx, cq.ID, "Action inconnue.")
		return
	}

	switch kind {
	case cbAttend, cbParticipate:
		choice, ok := model.ParseChoice(value)
		if !ok {
			h.answer(ctx, cq.ID, "Choix inconnu.")
			return
		}
		field := model.FieldWillAttend
		if kind == cbParticipate {
			field = model.FieldWillParticipate
		}
		h.answer(ctx, cq.ID, "")
		if err := s.wizard.Choose(ctx, field, choice); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("error recording choice")
			return
		}
		h.render(ctx, s)
	case cbActivity:
		activity, ok := model.ParseActivity(value)
		if !ok {
			h.answer(ctx, cq.ID, "Activité inconnue.")
			return
		}
		h.answer(ctx, cq.ID, "")
		if _, err := s.wizard.ToggleActivity(ctx, activity); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("error toggling activity")
			return
		}
		h.render(ctx, s)
	case cbEdit:
		field := model.Field(value)
		if !field.IsText() {
			h.answer(ctx, cq.ID, "Champ inconnu.")
			return
		}
		h.answer(ctx, cq.ID, "")
		s.setAwaiting(field)
		h.prompt(ctx, s, field)
	case cbNav:
		h.answer(ctx, cq.ID, "")
		switch value {
		case navNext:
			h.next(ctx, s)
		case navBack:
			h.back(ctx, s)
		case navSubmit:
			h.submit(ctx, s)
		case navRetry:
			h.retry(ctx, s)
		}
	default:
		h.answer(ctx, cq.ID, "Action inconnue.")
	}
}

// advanceAwaiting moves the text cursor past done. In step 1 it goes to the
// next empty identity field, otherwise it returns to the step card.
func (h *RegistrationBotHandler) advanceAwaiting(ctx context.Context, s *session, done model.Field) {
	next := model.Field("")
	if s.wizard.Step() == wizard.StepIdentity {
		form := s.wizard.Form()
		passed := false
		for _, f := range identityFields {
			if f == done {
				passed = true
				continue
			}
			if passed && model.IsBlank(form.Text(f)) {
				next = f
				break
			}
		}
	}
	s.setAwaiting(next)
	h.render(ctx, s)
}

func (h *RegistrationBotHandler) next(ctx context.Context, s *session) {
	err := s.wizard.Next(ctx)
	var verr *model.ValidationError
	switch {
	case err == nil:
		s.setAwaiting("")
		h.render(ctx, s)
	case errors.As(err, &verr):
		// the notifier has already warned the user
		for _, f := range verr.Missing {
			if f.IsText() {
				s.setAwaiting(f)
				h.prompt(ctx, s, f)
				return
			}
		}
		h.render(ctx, s)
	case errors.Is(err, model.ErrNoNextStep):
		h.send(ctx, s.chatID, "C'est la dernière étape, vous pouvez soumettre votre inscription.", nil)
		h.render(ctx, s)
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("error advancing step")
	}
}

func (h *RegistrationBotHandler) back(ctx context.Context, s *session) {
	s.setAwaiting("")
	if err := s.wizard.Back(ctx); errors.Is(err, model.ErrNoPreviousStep) {
		h.send(ctx, s.chatID, "Vous êtes déjà à la première étape.", nil)
	}
	h.render(ctx, s)
}

func (h *RegistrationBotHandler) submit(ctx context.Context, s *session) {
	if s.wizard.ForwardAction() != wizard.ActionSubmit {
		h.send(ctx, s.chatID, "Veuillez d'abord compléter les étapes du formulaire.", nil)
		h.render(ctx, s)
		return
	}
	h.afterSubmit(ctx, s, s.wizard.Submit(ctx))
}

func (h *RegistrationBotHandler) retry(ctx context.Context, s *session) {
	err := s.wizard.Retry(ctx)
	if errors.Is(err, model.ErrNothingToRetry) {
		h.send(ctx, s.chatID, "Aucun envoi à réessayer.", nil)
		return
	}
	h.afterSubmit(ctx, s, err)
}

// afterSubmit handles what the notifier does not: busy rejections and the
// text cursor after a reset.
func (h *RegistrationBotHandler) afterSubmit(ctx context.Context, s *session, err error) {
	switch {
	case err == nil:
		s.setAwaiting("")
		h.send(ctx, s.chatID, "Merci ! Pour inscrire une autre personne, utilisez /register.", nil)
	case errors.Is(err, model.ErrSubmissionInProgress):
		h.send(ctx, s.chatID, "Envoi en cours, veuillez patienter.", nil)
	default:
		zerolog.Ctx(ctx).Info().Err(err).Msg("submission failed, retry offered")
	}
}

// render shows the pending prompt if a text field is awaited, else the step card.
func (h *RegistrationBotHandler) render(ctx context.Context, s *session) {
	if field := s.Awaiting(); field != "" {
		h.prompt(ctx, s, field)
		return
	}
	step := s.wizard.Step()
	form := s.wizard.Form()
	submitting := s.wizard.Submitting()

	text := stepHeader(step, form)
	switch step {
	case wizard.StepIdentity:
		text += identityCard(form)
	case wizard.StepAttendance:
		text += attendanceCard(form)
	case wizard.StepActivities:
		text += activitiesCard(form, h.event)
	}
	h.send(ctx, s.chatID, text, stepKeyboard(step, form, h.event, submitting))
}

func (h *RegistrationBotHandler) prompt(ctx context.Context, s *session, field model.Field) {
	step := s.wizard.Step()
	h.send(ctx, s.chatID, stepHeader(step, s.wizard.Form())+"\n"+fieldPrompts[field], nil)
}

func (h *RegistrationBotHandler) send(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := h.messenger.SendMessage(ctx, params); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("error sending message")
	}
}

func (h *RegistrationBotHandler) answer(ctx context.Context, callbackID, text string) {
	_, err := h.messenger.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("error answering callback query")
	}
}
