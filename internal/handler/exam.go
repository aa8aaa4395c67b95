package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/pavelanni/examgen/internal/events"
	"github.com/pavelanni/examgen/internal/exam"
	"github.com/pavelanni/examgen/internal/export"
	appI18n "github.com/pavelanni/examgen/internal/i18n"
	"github.com/pavelanni/examgen/internal/model"
)

// runtime returns the user's exam runtime. The first call after a
// generation loads the exam from the handoff slot, falling back to the
// sample exam.
func (h *Handler) runtime(ctx context.Context, user *model.User) *exam.Runtime {
	sess := h.session(ctx, user)
	sess.mu.Lock()
	rt := sess.runtime
	req := sess.lastReq
	sess.mu.Unlock()
	if rt != nil {
		return rt
	}

	e, fromSlot := exam.LoadHandoff(ctx, h.handoff, user.ID)
	rt = h.newRuntime()
	rt.Load(e, req)
	slog.Debug("exam runtime loaded", "user_id", user.ID, "from_handoff", fromSlot, "questions", len(e.Questions))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.runtime == nil {
		sess.runtime = rt
	}
	return sess.runtime
}

func (h *Handler) handleExamView(w http.ResponseWriter, r *http.Request) {
	rt := h.runtime(r.Context(), model.UserFromContext(r.Context()))
	writeJSON(w, http.StatusOK, rt.View())
}

type answerRequest struct {
	QuestionID model.QuestionID `json:"questionId"`
	Answer     json.RawMessage  `json:"answer"`
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	rt := h.runtime(r.Context(), model.UserFromContext(r.Context()))

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	q, ok := rt.Question(req.QuestionID)
	if !ok {
		if err := rt.Answer(req.QuestionID, nil); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rt.View())
		return
	}
	a, err := exam.DecodeAnswer(q, req.Answer)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := rt.Answer(req.QuestionID, a); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.View())
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	rt := h.runtime(r.Context(), user)

	res, err := rt.Submit()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.publish(r.Context(), events.TopicExamSubmitted, user.ID, map[string]any{
		"correct":        res.Correct,
		"total":          res.Total,
		"percent":        res.Percent,
		"pending_review": len(res.PendingReview),
	})
	writeJSON(w, http.StatusOK, rt.View())
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	rt := h.runtime(r.Context(), model.UserFromContext(r.Context()))
	rt.Reset()
	writeJSON(w, http.StatusOK, rt.View())
}

func (h *Handler) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	rt := h.runtime(r.Context(), user)
	if h.gen == nil {
		h.fail(w, r, errMissingAPIKey)
		return
	}

	e, err := rt.Regenerate(r.Context())
	h.metrics.ObserveGeneration("regenerateExam", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.handoff.Put(r.Context(), user.ID, e); err != nil {
		slog.Warn("failed to store regenerated exam", "user_id", user.ID, "error", err)
	}
	h.publish(r.Context(), events.TopicExamGenerated, user.ID, map[string]any{
		"title":       e.Title,
		"questions":   len(e.Questions),
		"regenerated": true,
	})
	writeJSON(w, http.StatusOK, rt.View())
}

type exportRequest struct {
	FileName            string `json:"fileName"`
	Format              string `json:"format"`
	Kind                string `json:"kind"`
	IncludeAnswers      *bool  `json:"includeAnswers"`
	IncludeExplanations *bool  `json:"includeExplanations"`
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	var req exportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	opts := export.Options{
		FileName:            req.FileName,
		Format:              format,
		IncludeAnswers:      req.IncludeAnswers == nil || *req.IncludeAnswers,
		IncludeExplanations: req.IncludeExplanations == nil || *req.IncludeExplanations,
		TypeLabel:           func(qt model.QuestionType) string { return appI18n.TypeLabel(r.Context(), qt) },
	}

	var out export.Result
	kindLabel := appI18n.T(r.Context(), "KindExam")
	switch export.Kind(req.Kind) {
	case export.KindSummary:
		sess := h.session(r.Context(), user)
		sess.mu.Lock()
		doc := sess.summary
		sess.mu.Unlock()
		if doc.Text == "" {
			h.fail(w, r, fmt.Errorf("%w: no summary generated", model.ErrInvalidParameters))
			return
		}
		kindLabel = appI18n.T(r.Context(), "KindSummary")
		out, err = export.Summary(doc.Title, doc.Text, opts)
	case "", export.KindExam:
		rt := h.runtime(r.Context(), user)
		var res *model.Result
		if got, ok := rt.Result(); ok {
			res = &got
		}
		out, err = export.Exam(rt.Exam(), res, opts)
	default:
		err = fmt.Errorf("%w: unknown export kind %q", model.ErrInvalidParameters, req.Kind)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if out.Simulated {
		writeJSON(w, http.StatusOK, map[string]any{
			"fileName":  out.FileName,
			"simulated": true,
			"message": appI18n.Td(r.Context(), "ExamExported", map[string]any{
				"Kind":     kindLabel,
				"FileName": out.FileName,
			}),
		})
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		slog.Error("failed to write export", "error", err)
	}
}
