package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/pavelanni/examgen/internal/events"
	appI18n "github.com/pavelanni/examgen/internal/i18n"
	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/model"
)

type generateRequest struct {
	ContentID     string   `json:"contentId"`
	Content       string   `json:"content"`
	Difficulty    string   `json:"difficulty"`
	QuestionTypes []string `json:"questionTypes"`
	QuestionCount int      `json:"questionCount"`
	SpecificTopic string   `json:"specificTopic"`
}

// resolve picks the text to generate from: a library item when contentId is
// set, otherwise inline content. The second result is the item title.
func (s *userSession) resolve(req generateRequest) (string, string, bool) {
	if req.ContentID != "" {
		c, ok := s.library.GetByID(req.ContentID)
		if !ok {
			return "", "", false
		}
		return c.Content, c.Title, true
	}
	if strings.TrimSpace(req.Content) == "" {
		return "", "", false
	}
	return req.Content, "", true
}

func (h *Handler) promptRequest(action prompts.Action, text string, req generateRequest) prompts.Request {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = string(h.config.DefaultDifficulty)
	}
	return prompts.Request{
		Action:        action,
		Content:       text,
		Difficulty:    difficulty,
		QuestionTypes: req.QuestionTypes,
		QuestionCount: req.QuestionCount,
		SpecificTopic: req.SpecificTopic,
	}
}

// prepare decodes the request, resolves content and takes the busy flag for
// action. On failure it has already written the response.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request, action prompts.Action) (*userSession, generateRequest, string, string, func(), bool) {
	user := model.UserFromContext(r.Context())
	sess := h.session(r.Context(), user)

	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return nil, req, "", "", nil, false
	}
	text, title, ok := sess.resolve(req)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": appI18n.T(r.Context(), "ErrSelectContent")})
		return nil, req, "", "", nil, false
	}
	if h.gen == nil {
		h.fail(w, r, errMissingAPIKey)
		return nil, req, "", "", nil, false
	}
	done, err := sess.begin(action)
	if err != nil {
		h.fail(w, r, err)
		return nil, req, "", "", nil, false
	}
	return sess, req, text, title, done, true
}

func (h *Handler) handleGenerateExam(w http.ResponseWriter, r *http.Request) {
	sess, req, text, _, done, ok := h.prepare(w, r, prompts.ActionGenerateExam)
	if !ok {
		return
	}
	defer done()

	user := model.UserFromContext(r.Context())
	preq := h.promptRequest(prompts.ActionGenerateExam, text, req)
	e, err := h.gen.Exam(r.Context(), preq)
	h.metrics.ObserveGeneration(string(prompts.ActionGenerateExam), err)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.handoff.Put(r.Context(), user.ID, e); err != nil {
		slog.Warn("failed to store generated exam", "user_id", user.ID, "error", err)
	}
	sess.mu.Lock()
	sess.runtime = nil
	sess.lastReq = preq
	sess.mu.Unlock()

	h.publish(r.Context(), events.TopicExamGenerated, user.ID, map[string]any{
		"title":     e.Title,
		"questions": len(e.Questions),
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"exam":    e,
		"message": appI18n.Tp(r.Context(), "ExamGenerated", len(e.Questions)),
	})
}

func (h *Handler) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	_, req, text, _, done, ok := h.prepare(w, r, prompts.ActionGenerateQuestion)
	if !ok {
		return
	}
	defer done()

	q, err := h.gen.Question(r.Context(), h.promptRequest(prompts.ActionGenerateQuestion, text, req))
	h.metrics.ObserveGeneration(string(prompts.ActionGenerateQuestion), err)
	if err != nil {
		if errors.Is(err, model.ErrGenerationFailed) {
			slog.Error("question generation failed", "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": appI18n.T(r.Context(), "ErrGenerateQuestion")})
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"question": q})
}

func (h *Handler) handleGenerateSummary(w http.ResponseWriter, r *http.Request) {
	sess, req, text, title, done, ok := h.prepare(w, r, prompts.ActionSummary)
	if !ok {
		return
	}
	defer done()

	summary, err := h.gen.Summary(r.Context(), h.promptRequest(prompts.ActionSummary, text, req))
	h.metrics.ObserveGeneration(string(prompts.ActionSummary), err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if title == "" {
		title = "Mi Resumen"
	}
	sess.mu.Lock()
	sess.summary = summaryDoc{Title: title, Text: summary}
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

type summaryBody struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func (h *Handler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r.Context(), model.UserFromContext(r.Context()))
	sess.mu.Lock()
	doc := sess.summary
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, summaryBody{Title: doc.Title, Summary: doc.Text})
}

// handleUpdateSummary replaces the stored summary with the user's edited
// text. An empty title keeps the current one.
func (h *Handler) handleUpdateSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryBody
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Summary) == "" {
		h.fail(w, r, fmt.Errorf("%w: summary text is empty", model.ErrInvalidParameters))
		return
	}

	sess := h.session(r.Context(), model.UserFromContext(r.Context()))
	sess.mu.Lock()
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = sess.summary.Title
	}
	if title == "" {
		title = "Mi Resumen"
	}
	sess.summary = summaryDoc{Title: title, Text: req.Summary}
	doc := sess.summary
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, summaryBody{Title: doc.Title, Summary: doc.Text})
}

type processRequest struct {
	Content  string        `json:"content"`
	Action   string        `json:"action"`
	Params   processParams `json:"params"`
	URL      string        `json:"url"`
	FileName string        `json:"fileName"`
}

type processParams struct {
	Difficulty    string   `json:"difficulty"`
	QuestionTypes []string `json:"questionTypes"`
	QuestionCount int      `json:"questionCount"`
	SpecificTopic string   `json:"specificTopic"`
}

// handleProcessContent is the single public content-processing endpoint:
// PDF and URL ingestion plus exam, question and summary generation.
func (h *Handler) handleProcessContent(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": http.StatusText(http.StatusMethodNotAllowed)})
		return
	}

	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.processError(w, r, err)
		return
	}
	if h.gen == nil {
		h.processError(w, r, errMissingAPIKey)
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "extractPdfText":
		text, err := h.ingest.PDFText(ctx, req.FileName)
		if err != nil {
			h.processError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"text": text})
		return
	case "fetchUrl":
		text, err := h.ingest.URLContent(ctx, req.URL)
		if err != nil {
			h.processError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"content": text})
		return
	}

	preq := prompts.Request{
		Action:        prompts.Action(req.Action),
		Content:       req.Content,
		Difficulty:    req.Params.Difficulty,
		QuestionTypes: req.Params.QuestionTypes,
		QuestionCount: req.Params.QuestionCount,
		SpecificTopic: req.Params.SpecificTopic,
	}
	result, err := h.process(ctx, preq)
	if err != nil {
		h.processError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) process(ctx context.Context, req prompts.Request) (map[string]any, error) {
	switch req.Action {
	case prompts.ActionGenerateExam:
		e, err := h.gen.Exam(ctx, req)
		h.metrics.ObserveGeneration(string(req.Action), err)
		if err != nil {
			return nil, err
		}
		return map[string]any{"exam": e}, nil
	case prompts.ActionGenerateQuestion:
		q, err := h.gen.Question(ctx, req)
		h.metrics.ObserveGeneration(string(req.Action), err)
		if err != nil {
			return nil, err
		}
		return map[string]any{"question": q}, nil
	default:
		s, err := h.gen.Summary(ctx, req)
		h.metrics.ObserveGeneration(string(prompts.ActionSummary), err)
		if err != nil {
			return nil, err
		}
		return map[string]any{"summary": s}, nil
	}
}

// processError answers with 400 for invalid parameters and 500 otherwise.
func (h *Handler) processError(w http.ResponseWriter, r *http.Request, err error) {
	_, msg := h.describe(r.Context(), err)
	status := http.StatusInternalServerError
	if errors.Is(err, model.ErrInvalidParameters) {
		status = http.StatusBadRequest
	}
	slog.Error("process-content failed", "status", status, "error", err)
	writeJSON(w, status, map[string]string{"error": msg})
}

// processCORSHeaders are the request headers browsers may send to the public
// content-processing endpoint.
var processCORSHeaders = []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"}

// processCORS allows any origin. Preflight requests pass through so the
// endpoint can answer them with 204.
func processCORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders:     processCORSHeaders,
		MaxAge:             86400,
		OptionsPassthrough: true,
	})
}
