package model

import (
	"context"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is the default role for people who upload material and take exams.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin can manage other users.
	UserRoleAdmin UserRole = "admin"
)

// User represents a signed-in account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// UploadedContent is a stored piece of study material.
type UploadedContent struct {
	ID        string    `json:"id"`
	OwnerID   int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	FileName  string    `json:"file_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Difficulty is the requested exam difficulty. Values follow the UI vocabulary.
type Difficulty string

const (
	DifficultyLow    Difficulty = "bajo"
	DifficultyMedium Difficulty = "medio"
	DifficultyHigh   Difficulty = "alto"
)

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	Lang              string        // notification language (es, en)
	SecureCookies     bool          // Set Secure flag on cookies (disable for local dev)
	HandoffTTL        time.Duration // lifetime of a generated exam waiting to be taken
	ShuffleSeed       uint64        // 0 means a random seed per runtime
	ProcessRateLimit  float64       // requests per second on the public endpoint, 0 disables
	ProcessRateBurst  int
	AllowSignup       bool
	DefaultDifficulty Difficulty
}
