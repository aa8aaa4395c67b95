package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examgen/internal/content"
	"github.com/pavelanni/examgen/internal/events"
	"github.com/pavelanni/examgen/internal/exam"
	appI18n "github.com/pavelanni/examgen/internal/i18n"
	"github.com/pavelanni/examgen/internal/ingest"
	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/metrics"
	"github.com/pavelanni/examgen/internal/model"
	"github.com/pavelanni/examgen/internal/store"
)

// errMissingAPIKey is returned for generation requests when no completion
// endpoint is configured.
var errMissingAPIKey = errors.New("completion API key not configured")

// maxBodyBytes bounds JSON request bodies. Content is truncated for prompts
// anyway, so anything much larger is a mistake.
const maxBodyBytes = 4 << 20

// UserStore is the account and login-session storage.
type UserStore interface {
	CreateUser(ctx context.Context, u model.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ToggleUserActive(ctx context.Context, id int64) error
	CreateAuthSession(ctx context.Context, userID int64) (string, error)
	GetAuthSession(ctx context.Context, token string) (*model.AuthSession, error)
	DeleteAuthSession(ctx context.Context, token string) error
}

// Generator produces exams, single questions and summaries from content.
type Generator interface {
	Exam(ctx context.Context, req prompts.Request) (*model.Exam, error)
	Question(ctx context.Context, req prompts.Request) (model.Question, error)
	Summary(ctx context.Context, req prompts.Request) (string, error)
}

// Deps are the collaborators of a Handler. Generator may be nil when no API
// key is configured; Events and Metrics may be nil.
type Deps struct {
	Users     UserStore
	Contents  content.Repository
	Generator Generator
	Handoff   exam.Handoff
	Ingest    ingest.Extractor
	Events    *events.Publisher
	Metrics   *metrics.Metrics
	Config    model.ServerConfig
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	users    UserStore
	contents content.Repository
	gen      Generator
	handoff  exam.Handoff
	ingest   ingest.Extractor
	events   *events.Publisher
	metrics  *metrics.Metrics
	config   model.ServerConfig

	mu       sync.Mutex
	sessions map[int64]*userSession
}

// userSession is the per-user server-side state: the content library, the
// exam being taken and the in-flight generation flags.
type userSession struct {
	mu      sync.Mutex
	fetched sync.Once
	library *content.Library
	runtime *exam.Runtime
	lastReq prompts.Request
	summary summaryDoc
	busy    map[prompts.Action]bool
}

type summaryDoc struct {
	Title string
	Text  string
}

// New creates a new Handler.
func New(d Deps) (*Handler, error) {
	if d.Users == nil || d.Contents == nil {
		return nil, fmt.Errorf("handler: user and content stores are required")
	}
	if d.Handoff == nil {
		d.Handoff = exam.NewMemoryHandoff(d.Config.HandoffTTL)
	}
	if d.Ingest == nil {
		d.Ingest = ingest.Placeholder{}
	}
	return &Handler{
		users:    d.Users,
		contents: d.Contents,
		gen:      d.Generator,
		handoff:  d.Handoff,
		ingest:   d.Ingest,
		events:   d.Events,
		metrics:  d.Metrics,
		config:   d.Config,
		sessions: make(map[int64]*userSession),
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(processCORS())
		if h.config.ProcessRateLimit > 0 {
			r.Use(newRateLimiter(h.config.ProcessRateLimit, h.config.ProcessRateBurst).Middleware)
		}
		r.HandleFunc("/functions/v1/process-content", h.handleProcessContent)
		r.HandleFunc("/process-content", h.handleProcessContent)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.handleSignup)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/auth/me", h.handleMe)

			r.Get("/contents", h.handleListContents)
			r.Post("/contents", h.handleSaveContent)
			r.Post("/contents/pdf", h.handleSavePDF)
			r.Post("/contents/url", h.handleSaveURL)
			r.Get("/contents/{id}", h.handleGetContent)
			r.Delete("/contents/{id}", h.handleDeleteContent)

			r.Post("/exams/generate", h.handleGenerateExam)
			r.Post("/questions/generate", h.handleGenerateQuestion)
			r.Post("/summaries/generate", h.handleGenerateSummary)
			r.Get("/summaries", h.handleGetSummary)
			r.Put("/summaries", h.handleUpdateSummary)

			r.Get("/exam", h.handleExamView)
			r.Post("/exam/answers", h.handleAnswer)
			r.Post("/exam/submit", h.handleSubmit)
			r.Post("/exam/reset", h.handleReset)
			r.Post("/exam/regenerate", h.handleRegenerate)
			r.Post("/exam/export", h.handleExport)

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(model.UserRoleAdmin))
				r.Get("/users", h.handleAdminListUsers)
				r.Post("/users", h.handleCreateUser)
				r.Post("/users/{userID}/toggle", h.handleToggleUserActive)
			})
		})
	})
}

// session returns the state for user, creating it on first use. The
// library is fetched from the repository once; concurrent first callers
// wait for that fetch to finish.
func (h *Handler) session(ctx context.Context, user *model.User) *userSession {
	h.mu.Lock()
	s, ok := h.sessions[user.ID]
	if !ok {
		s = &userSession{
			library: content.NewLibrary(h.contents, user),
			busy:    make(map[prompts.Action]bool),
		}
		h.sessions[user.ID] = s
	}
	h.mu.Unlock()

	s.fetched.Do(func() {
		if err := s.library.Fetch(ctx); err != nil {
			slog.Warn("initial content fetch failed", "user_id", user.ID, "error", err)
		}
	})
	return s
}

// begin marks action as in flight for the session. The returned func clears it.
func (s *userSession) begin(action prompts.Action) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[action] {
		return nil, model.ErrBusy
	}
	s.busy[action] = true
	return func() {
		s.mu.Lock()
		delete(s.busy, action)
		s.mu.Unlock()
	}, nil
}

func (h *Handler) newRuntime() *exam.Runtime {
	var src rand.Source
	if h.config.ShuffleSeed != 0 {
		src = rand.NewPCG(h.config.ShuffleSeed, h.config.ShuffleSeed)
	}
	var gen exam.Generator
	if h.gen != nil {
		gen = h.gen
	}
	return exam.NewRuntime(gen, src)
}

func (h *Handler) publish(ctx context.Context, topic string, userID int64, data map[string]any) {
	if err := h.events.Publish(ctx, topic, userID, data); err != nil {
		slog.Warn("event not published", "topic", topic, "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %v", model.ErrInvalidParameters, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// fail converts err into a localized {"error": ...} response. persistMsg,
// when set, replaces the generic persistence message for this operation.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, persistMsg ...string) {
	status, msg := h.describe(r.Context(), err, persistMsg...)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) describe(ctx context.Context, err error, persistMsg ...string) (int, string) {
	var parseErr *model.ExamParseError
	switch {
	case errors.Is(err, model.ErrAuthRequired):
		return http.StatusUnauthorized, appI18n.T(ctx, "ErrAuthRequired")
	case errors.As(err, &parseErr):
		slog.Error("unparseable exam", "raw", parseErr.Raw)
		return http.StatusUnprocessableEntity, appI18n.T(ctx, "ErrExamParse")
	case errors.Is(err, model.ErrGenerationFailed):
		return http.StatusBadGateway, appI18n.Td(ctx, "ErrGenerationFailed",
			map[string]any{"Detail": detail(err, model.ErrGenerationFailed)})
	case errors.Is(err, model.ErrInvalidParameters):
		return http.StatusBadRequest, appI18n.Td(ctx, "ErrInvalidParameters",
			map[string]any{"Detail": detail(err, model.ErrInvalidParameters)})
	case errors.Is(err, model.ErrBusy):
		return http.StatusConflict, appI18n.T(ctx, "ErrBusy")
	case errors.Is(err, model.ErrSubmitted):
		return http.StatusConflict, appI18n.T(ctx, "ErrSubmitted")
	case errors.Is(err, model.ErrEmptyExam):
		return http.StatusUnprocessableEntity, appI18n.T(ctx, "ErrEmptyExam")
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, appI18n.T(ctx, "ErrNotFound")
	case errors.Is(err, store.ErrUsernameTaken):
		return http.StatusConflict, appI18n.T(ctx, "ErrUsernameTaken")
	case errors.Is(err, errMissingAPIKey):
		return http.StatusInternalServerError, appI18n.T(ctx, "ErrMissingAPIKey")
	case errors.Is(err, model.ErrPersistence):
		if len(persistMsg) > 0 {
			return http.StatusInternalServerError, appI18n.T(ctx, persistMsg[0])
		}
		return http.StatusInternalServerError, appI18n.T(ctx, "ErrPersistence")
	default:
		return http.StatusInternalServerError, appI18n.T(ctx, "ErrInternal")
	}
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
