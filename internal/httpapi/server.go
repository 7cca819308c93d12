// Package httpapi serves the interview engine over JSON HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abhisek/skillprobe/internal/interview"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/scoring"
	"github.com/abhisek/skillprobe/internal/session"
)

// Engine is the part of *session.Engine the API uses.
type Engine interface {
	StartSession(ctx context.Context, userID int64, role interview.Role, exp interview.Experience) (*session.Started, error)
	SubmitAnswer(ctx context.Context, req session.AnswerRequest) (*session.TurnResult, error)
	GetProfile(ctx context.Context, id string) (*scoring.Profile, error)
	Get(ctx context.Context, id string) (*interview.Session, error)
	Abandon(ctx context.Context, id string) error
	Busy(id string) bool
	Config() session.Config
}

// Handler serves the interview API.
type Handler struct {
	engine  Engine
	metrics http.Handler
	logger  *slog.Logger
}

// New creates a Handler. metrics may be nil, in which case /metrics is not
// served.
func New(engine Engine, metrics http.Handler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, metrics: metrics, logger: logger}
}

// Router returns a chi router with the standard middleware stack and all
// routes mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	h.Routes(r)
	return r
}

// Routes registers the API routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleStart)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/answers", h.handleAnswer)
			r.Get("/profile", h.handleProfile)
			r.Post("/abandon", h.handleAbandon)
		})
	})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type startRequest struct {
	UserID     int64  `json:"user_id"`
	Role       string `json:"role"`
	Experience string `json:"experience"`
}

type answerRequest struct {
	Turn int    `json:"turn"`
	Text string `json:"text"`
}

type sessionView struct {
	*interview.Session
	Total int  `json:"total"`
	Busy  bool `json:"busy"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	role, err := interview.ParseRole(req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	exp, err := interview.ParseExperience(req.Experience)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	started, err := h.engine.StartSession(r.Context(), req.UserID, role, exp)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	s, err := h.engine.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{
		Session: s,
		Total:   h.engine.Config().TotalQuestions,
		Busy:    h.engine.Busy(id),
	})
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	res, err := h.engine.SubmitAnswer(r.Context(), session.AnswerRequest{
		SessionID: chi.URLParam(r, "sessionID"),
		Turn:      req.Turn,
		Text:      req.Text,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.GetProfile(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAbandon(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Abandon(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var (
		stateErr *interview.InvalidStateError
		genErr   *questiongen.GenerationError
	)
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.As(err, &stateErr):
		return http.StatusConflict
	case errors.Is(err, interview.ErrInvalidRole),
		errors.Is(err, interview.ErrInvalidExperience),
		errors.Is(err, interview.ErrAnswerTooShort):
		return http.StatusBadRequest
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
