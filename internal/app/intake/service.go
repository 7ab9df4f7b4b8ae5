package intake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/homecare-labs/intake-api/internal/domain"
	"github.com/homecare-labs/intake-api/internal/observability"
)

// startMarker is the fixed initialization message sent on the first exchange.
// The system prompt tells the model how to answer it.
const startMarker = "START_CHAT"

// apologyMessage is recorded as an assistant turn when a regular exchange
// fails in transport, so the conversation is never left hanging on an error.
const apologyMessage = "I'm sorry, I'm having trouble responding right now. " +
	"Could you please send that again in a moment?"

// Service drives the intake turn pipeline: it owns the registry of active
// sessions and runs one full request/response cycle per user action.
type Service struct {
	gateway domain.ChatModel

	extractor *extractor
	persister *persister

	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session

	defaultLanguage string
	now             func() time.Time
}

func NewService(
	gateway domain.ChatModel,
	interviews domain.InterviewStore,
	profiles domain.ProfileStore,
	defaultLanguage string,
) *Service {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &Service{
		gateway:         gateway,
		extractor:       newExtractor(gateway),
		persister:       newPersister(interviews, profiles),
		sessions:        make(map[domain.SessionID]*Session),
		defaultLanguage: defaultLanguage,
		now:             time.Now,
	}
}

// Session returns an active session by id.
func (s *Service) Session(id domain.SessionID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

type StartSessionInput struct {
	User     domain.UserContext
	Language string
}

type StartSessionOutput struct {
	Session  *Session
	Greeting *domain.Turn
}

// StartSession registers a fresh session and asks the model for its opening
// message. On gateway failure the empty session is dropped again, so the
// caller starts over by creating a new one.
func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	if in.User.UserID == "" {
		return nil, fmt.Errorf("user context with a user id is required")
	}

	language := in.Language
	if language == "" {
		language = s.defaultLanguage
	}

	sess := newSession(domain.SessionID(uuid.NewString()), in.User, language, s.now())
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sess.ID,
		"user_id", sess.User.UserID,
		"language", language,
	)
	log.Info("starting intake session")

	sess.begin(domain.StateIdle, domain.StateInitializing)
	defer sess.settle()

	reply, err := s.gateway.Send(ctx, domain.ChatRequest{
		Text:        startMarker,
		Language:    language,
		UserContext: &sess.User,
	})
	if err != nil {
		// The caller retries by creating a fresh session, so the empty one
		// is dropped rather than left behind.
		log.Error("failed to start session", "error", err)
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		return nil, fmt.Errorf("start session: %w", err)
	}

	greeting := domain.Turn{Role: domain.RoleAssistant, Content: reply}
	sess.Append(greeting)

	log.Info("intake session started")
	return &StartSessionOutput{Session: sess, Greeting: &greeting}, nil
}

type TurnOutput struct {
	// Accepted is false when the input was empty or the session was busy;
	// the call was silently ignored and nothing changed.
	Accepted bool

	UserTurn      *domain.Turn
	AssistantTurn *domain.Turn
}

// SendTurn runs one conversational exchange. Empty input and non-idle
// sessions are no-ops, never errors: double submits must not corrupt the
// turn sequence. On a gateway failure the user turn stays recorded and an
// apologetic assistant turn is appended in place of a reply.
func (s *Service) SendTurn(ctx context.Context, id domain.SessionID, text string) (*TurnOutput, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return &TurnOutput{Accepted: false}, nil
	}
	if !sess.begin(domain.StateIdle, domain.StateSending) {
		return &TurnOutput{Accepted: false}, nil
	}

	return s.exchange(ctx, sess, text), nil
}

// ChangeLanguage switches the session language and injects a synthetic user
// turn announcing the change. It is the one case where a turn is added on
// the caller's behalf without direct text entry; the rest of the cycle
// follows the SendTurn contract, including the busy no-op.
func (s *Service) ChangeLanguage(ctx context.Context, id domain.SessionID, code string) (*TurnOutput, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	if !sess.begin(domain.StateIdle, domain.StateSending) {
		return &TurnOutput{Accepted: false}, nil
	}

	sess.SetLanguage(code)
	text := fmt.Sprintf("Please continue our conversation in %s.", domain.LanguageName(code))

	return s.exchange(ctx, sess, text), nil
}

// exchange appends the user turn optimistically, calls the gateway with the
// entire prior turn sequence as context, and always restores the session to
// idle. The caller must already hold the sending state.
func (s *Service) exchange(ctx context.Context, sess *Session, text string) *TurnOutput {
	defer sess.settle()

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sess.ID,
		"user_id", sess.User.UserID,
	)

	history := sess.Turns()
	userTurn := domain.Turn{Role: domain.RoleUser, Content: text}
	sess.Append(userTurn)

	reply, err := s.gateway.Send(ctx, domain.ChatRequest{
		History:     history,
		Text:        text,
		Language:    sess.Language(),
		UserContext: &sess.User,
	})
	if err != nil {
		log.Error("gateway exchange failed", "error", err)
		reply = apologyMessage
	}

	assistantTurn := domain.Turn{Role: domain.RoleAssistant, Content: reply}
	sess.Append(assistantTurn)

	return &TurnOutput{Accepted: true, UserTurn: &userTurn, AssistantTurn: &assistantTurn}
}

type FinishOutput struct {
	// Accepted is false when the session was not idle and the finish call
	// was ignored.
	Accepted bool

	// Completed is true once the profile was generated and both records
	// were written; the session has been cleared and handed off.
	Completed bool

	Message  string
	ErrorTag string
}

// finishFailedMessage is returned when persistence (or the gateway itself)
// fails after the interview; the caller may retry the whole finish step.
const finishFailedMessage = "We couldn't save your profile just now. " +
	"Please try finishing again in a moment."

// Finish ends free-form chat: it asks the model for the structured profile,
// persists the two derived records, and clears the session. Profile
// generation is best-effort; when the model output stays unparsable the raw
// transcript is kept for human review and the session is retained.
func (s *Service) Finish(ctx context.Context, id domain.SessionID) (*FinishOutput, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, err
	}

	if !sess.begin(domain.StateIdle, domain.StateGeneratingProfile) {
		return &FinishOutput{Accepted: false}, nil
	}
	defer sess.settle()

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sess.ID,
		"user_id", sess.User.UserID,
	)
	log.Info("generating care recipient profile", "turns", sess.Len())

	outcome, err := s.extractor.Generate(ctx, sess, s.now())
	if err != nil {
		log.Error("profile generation failed", "error", err)
		return &FinishOutput{Accepted: true, Completed: false, Message: finishFailedMessage}, nil
	}

	if !outcome.parsed {
		log.Warn("model output unparsable after retry", "error_tag", outcome.errTag)
		return &FinishOutput{
			Accepted: true,
			Message:  outcome.message,
			ErrorTag: outcome.errTag,
		}, nil
	}

	if err := s.persister.Save(ctx, sess.User.UserID, sess.Language(), sess.Turns(), outcome.profile); err != nil {
		log.Error("profile persistence failed", "error", err)
		return &FinishOutput{Accepted: true, Completed: false, Message: finishFailedMessage}, nil
	}

	sess.Clear()
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()

	log.Info("profile saved, session handed off")
	return &FinishOutput{
		Accepted:  true,
		Completed: true,
		Message:   "Your care profile has been successfully created! You'll be redirected to review and edit your profile.",
	}, nil
}
