package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examgen/internal/events"
	appI18n "github.com/pavelanni/examgen/internal/i18n"
	"github.com/pavelanni/examgen/internal/model"
)

type saveContentRequest struct {
	Content  string `json:"content"`
	Title    string `json:"title"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

func (h *Handler) handleListContents(w http.ResponseWriter, r *http.Request) {
	lib := h.session(r.Context(), model.UserFromContext(r.Context())).library
	if err := lib.Fetch(r.Context()); err != nil {
		h.fail(w, r, err, "ErrFetchContent")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contents": lib.List()})
}

func (h *Handler) handleSaveContent(w http.ResponseWriter, r *http.Request) {
	var req saveContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.save(w, r, req.Content, req.Title, req.FileName)
}

func (h *Handler) handleSavePDF(w http.ResponseWriter, r *http.Request) {
	var req saveContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	text, err := h.ingest.PDFText(r.Context(), req.FileName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.save(w, r, text, req.Title, req.FileName)
}

func (h *Handler) handleSaveURL(w http.ResponseWriter, r *http.Request) {
	var req saveContentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	text, err := h.ingest.URLContent(r.Context(), req.URL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.save(w, r, text, req.Title, "")
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, text, title, fileName string) {
	user := model.UserFromContext(r.Context())
	lib := h.session(r.Context(), user).library
	c, err := lib.Save(r.Context(), text, title, fileName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.publish(r.Context(), events.TopicContentSaved, user.ID, map[string]any{
		"content_id": c.ID,
		"title":      c.Title,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"content": c,
		"message": appI18n.T(r.Context(), "ContentSaved"),
	})
}

func (h *Handler) handleGetContent(w http.ResponseWriter, r *http.Request) {
	lib := h.session(r.Context(), model.UserFromContext(r.Context())).library
	c, ok := lib.GetByID(chi.URLParam(r, "id"))
	if !ok {
		h.fail(w, r, model.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": c})
}

func (h *Handler) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	lib := h.session(r.Context(), user).library
	id := chi.URLParam(r, "id")
	if err := lib.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err, "ErrDeleteContent")
		return
	}
	h.publish(r.Context(), events.TopicContentDeleted, user.ID, map[string]any{"content_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"message": appI18n.T(r.Context(), "ContentDeleted")})
}
