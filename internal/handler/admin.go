package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/examgen/internal/model"
)

func (h *Handler) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || c.Password == "" {
		h.fail(w, r, fmt.Errorf("%w: username and password required", model.ErrInvalidParameters))
		return
	}

	role := model.UserRole(c.Role)
	switch role {
	case "":
		role = model.UserRoleStudent
	case model.UserRoleStudent, model.UserRoleAdmin:
	default:
		h.fail(w, r, fmt.Errorf("%w: unknown role %q", model.ErrInvalidParameters, c.Role))
		return
	}

	user, err := h.createUser(r, c, role)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: invalid user ID", model.ErrInvalidParameters))
		return
	}

	if err := h.users.ToggleUserActive(r.Context(), id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		h.fail(w, r, err)
		return
	}

	// Drop cached state so a deactivated user starts clean if re-enabled.
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()

	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
