package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/homecare-labs/intake-api/internal/app/intake"
	"github.com/homecare-labs/intake-api/internal/app/review"
	"github.com/homecare-labs/intake-api/internal/domain"
)

type Server struct {
	intake *intake.Service
	review *review.Service
}

// NewServer wires the intake and review services into a chi router.
func NewServer(intakeSvc *intake.Service, reviewSvc *review.Service, frontendURL string) http.Handler {
	s := &Server{intake: intakeSvc, review: reviewSvc}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging)
	r.Use(withCORS(frontendURL))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/languages", s.handleLanguages)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleStartSession)
		r.Get("/{sessionID}", s.handleGetSession)
		r.Post("/{sessionID}/turns", s.handleSendTurn)
		r.Post("/{sessionID}/language", s.handleChangeLanguage)
		r.Post("/{sessionID}/finish", s.handleFinish)
	})

	r.Route("/admin/interviews", func(r chi.Router) {
		r.Get("/", s.handleListPendingReviews)
		r.Get("/{userID}", s.handleGetInterview)
		r.Post("/{userID}/review", s.handleCompleteReview)
	})

	return r
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type startSessionRequest struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Language string `json:"language,omitempty"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Language  string    `json:"language"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type turnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type startSessionResponse struct {
	Session  sessionResponse `json:"session"`
	Greeting *turnResponse   `json:"greeting,omitempty"`
}

type getSessionResponse struct {
	Session sessionResponse `json:"session"`
	Turns   []turnResponse  `json:"turns"`
}

type sendTurnRequest struct {
	Text string `json:"text"`
}

type changeLanguageRequest struct {
	Language string `json:"language"`
}

type exchangeResponse struct {
	UserTurn      *turnResponse `json:"user_turn,omitempty"`
	AssistantTurn *turnResponse `json:"assistant_turn,omitempty"`
}

type finishResponse struct {
	Completed bool   `json:"completed"`
	Message   string `json:"message,omitempty"`
	ErrorTag  string `json:"error_tag,omitempty"`
}

type interviewResponse struct {
	UserID           string         `json:"user_id"`
	Language         string         `json:"language"`
	RawHistory       []turnResponse `json:"raw_history"`
	ProcessedProfile map[string]any `json:"processed_profile"`
	NeedsReview      bool           `json:"needs_review"`
	ReviewCompleted  bool           `json:"review_completed"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ─────────────────────────────────────────────
// Intake handlers
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Languages())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	out, err := s.intake.StartSession(r.Context(), intake.StartSessionInput{
		User: domain.UserContext{
			UserID: domain.UserID(req.UserID),
			Name:   req.Name,
			Email:  req.Email,
		},
		Language: req.Language,
	})
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "could not start the interview, please try again",
		})
		return
	}

	resp := startSessionResponse{Session: toSessionResponse(out.Session)}
	if out.Greeting != nil {
		g := toTurnResponse(*out.Greeting)
		resp.Greeting = &g
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.intake.Session(sessionID(r))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, getSessionResponse{
		Session: toSessionResponse(sess),
		Turns:   toTurnsResponse(sess.Turns()),
	})
}

func (s *Server) handleSendTurn(w http.ResponseWriter, r *http.Request) {
	var req sendTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	out, err := s.intake.SendTurn(r.Context(), sessionID(r), req.Text)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.writeExchange(w, out)
}

func (s *Server) handleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	var req changeLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if req.Language == "" {
		badRequest(w, "language is required")
		return
	}

	out, err := s.intake.ChangeLanguage(r.Context(), sessionID(r), req.Language)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.writeExchange(w, out)
}

// writeExchange maps the core's silent no-op onto 409: nothing changed, the
// caller may retry once the session settles.
func (s *Server) writeExchange(w http.ResponseWriter, out *intake.TurnOutput) {
	if !out.Accepted {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "session is busy or input was empty",
		})
		return
	}

	resp := exchangeResponse{}
	if out.UserTurn != nil {
		t := toTurnResponse(*out.UserTurn)
		resp.UserTurn = &t
	}
	if out.AssistantTurn != nil {
		t := toTurnResponse(*out.AssistantTurn)
		resp.AssistantTurn = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	out, err := s.intake.Finish(r.Context(), sessionID(r))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !out.Accepted {
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "session is busy",
		})
		return
	}

	writeJSON(w, http.StatusOK, finishResponse{
		Completed: out.Completed,
		Message:   out.Message,
		ErrorTag:  out.ErrorTag,
	})
}

// ─────────────────────────────────────────────
// Review handlers
// ─────────────────────────────────────────────

func (s *Server) handleListPendingReviews(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := s.review.ListPending(r.Context(), limit)
	if err != nil {
		internalError(w, err)
		return
	}

	out := make([]interviewResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toInterviewResponse(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	rec, err := s.review.GetInterview(r.Context(), domain.UserID(chi.URLParam(r, "userID")))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInterviewResponse(rec))
}

func (s *Server) handleCompleteReview(w http.ResponseWriter, r *http.Request) {
	err := s.review.CompleteReview(r.Context(), domain.UserID(chi.URLParam(r, "userID")))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"review_completed": true})
}

// ─────────────────────────────────────────────
// Response helpers
// ─────────────────────────────────────────────

func sessionID(r *http.Request) domain.SessionID {
	return domain.SessionID(chi.URLParam(r, "sessionID"))
}

func toSessionResponse(sess *intake.Session) sessionResponse {
	return sessionResponse{
		ID:        string(sess.ID),
		UserID:    string(sess.User.UserID),
		Language:  sess.Language(),
		State:     string(sess.State()),
		CreatedAt: sess.CreatedAt(),
		UpdatedAt: sess.UpdatedAt(),
	}
}

func toTurnResponse(t domain.Turn) turnResponse {
	return turnResponse{Role: string(t.Role), Content: t.Content}
}

func toTurnsResponse(turns []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, toTurnResponse(t))
	}
	return out
}

func toInterviewResponse(rec *domain.InterviewRecord) interviewResponse {
	return interviewResponse{
		UserID:           string(rec.UserID),
		Language:         rec.Language,
		RawHistory:       toTurnsResponse(rec.RawHistory),
		ProcessedProfile: rec.ProcessedProfile,
		NeedsReview:      rec.NeedsReview,
		ReviewCompleted:  rec.ReviewCompleted,
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func internalError(w http.ResponseWriter, _ error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
