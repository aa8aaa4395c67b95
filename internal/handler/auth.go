package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/pavelanni/examgen/internal/i18n"
	"github.com/pavelanni/examgen/internal/model"
)

const (
	sessionCookieName = "session"
	minPasswordLen    = 6
)

type credentials struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// requireAuth is middleware that checks for a valid session cookie.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.fail(w, r, model.ErrAuthRequired)
			return
		}

		authSess, err := h.users.GetAuthSession(r.Context(), cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			h.fail(w, r, model.ErrAuthRequired)
			return
		}
		if authSess == nil {
			h.fail(w, r, model.ErrAuthRequired)
			return
		}

		user, err := h.users.GetUserByID(r.Context(), authSess.UserID)
		if err != nil || user == nil || !user.Active {
			h.fail(w, r, model.ErrAuthRequired)
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": appI18n.T(r.Context(), "ErrAuthRequired")})
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusForbidden, map[string]string{"error": appI18n.T(r.Context(), "ErrForbidden")})
		})
	}
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !h.config.AllowSignup {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": appI18n.T(r.Context(), "ErrForbidden")})
		return
	}
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		h.fail(w, r, err)
		return
	}
	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": appI18n.T(r.Context(), "ErrInvalidCredentials")})
		return
	}
	if len(c.Password) < minPasswordLen {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": appI18n.T(r.Context(), "ErrPasswordTooShort")})
		return
	}

	user, err := h.createUser(r, c, model.UserRoleStudent)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.startSession(w, r, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"message": appI18n.T(r.Context(), "SignupSuccess"),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(w, r, &c); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), strings.TrimSpace(c.Username))
	if err != nil {
		slog.Error("failed to get user", "error", err)
		h.fail(w, r, err)
		return
	}
	if user == nil || !user.Active {
		h.loginError(w, r)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)); err != nil {
		h.loginError(w, r)
		return
	}

	if err := h.startSession(w, r, user.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.users.DeleteAuthSession(r.Context(), cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"user": model.UserFromContext(r.Context())})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID int64) error {
	token, err := h.users.CreateAuthSession(r.Context(), userID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	return nil
}

func (h *Handler) createUser(r *http.Request, c credentials, role model.UserRole) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		return nil, err
	}
	if c.DisplayName == "" {
		c.DisplayName = c.Username
	}
	u := model.User{
		Username:     c.Username,
		DisplayName:  c.DisplayName,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	id, err := h.users.CreateUser(r.Context(), u)
	if err != nil {
		return nil, err
	}
	u.ID = id
	return &u, nil
}

func (h *Handler) loginError(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": appI18n.T(r.Context(), "ErrInvalidCredentials")})
}
