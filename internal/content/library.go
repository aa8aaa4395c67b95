package content

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pavelanni/examgen/internal/model"
)

// Repository persists uploaded content. Implementations generate the id and
// creation time on Insert and list newest first.
type Repository interface {
	InsertContent(ctx context.Context, c model.UploadedContent) (model.UploadedContent, error)
	ListContent(ctx context.Context, ownerID int64) ([]model.UploadedContent, error)
	DeleteContent(ctx context.Context, ownerID int64, id string) error
}

// Library is one user's view of their uploaded content. It keeps the last
// fetched list in memory; GetByID never goes back to the repository.
type Library struct {
	repo Repository
	user *model.User
	now  func() time.Time

	mu    sync.Mutex
	items []model.UploadedContent
}

// NewLibrary creates a Library for user. A nil user yields a library whose
// operations report model.ErrAuthRequired.
func NewLibrary(repo Repository, user *model.User) *Library {
	return &Library{repo: repo, user: user, now: time.Now}
}

// Save stores text. An empty title is derived from the content or file name.
func (l *Library) Save(ctx context.Context, text, title, fileName string) (model.UploadedContent, error) {
	if l.user == nil {
		return model.UploadedContent{}, model.ErrAuthRequired
	}
	if strings.TrimSpace(text) == "" {
		return model.UploadedContent{}, fmt.Errorf("%w: content is empty", model.ErrInvalidParameters)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = DeriveTitle(text, fileName, l.now())
	}

	c, err := l.repo.InsertContent(ctx, model.UploadedContent{
		OwnerID:  l.user.ID,
		Title:    title,
		Content:  text,
		FileName: fileName,
	})
	if err != nil {
		slog.Error("failed to save content", "user_id", l.user.ID, "error", err)
		return model.UploadedContent{}, fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	l.mu.Lock()
	l.items = slices.Insert(l.items, 0, c)
	l.mu.Unlock()
	return c, nil
}

// Fetch replaces the in-memory list with the repository's. On failure the
// previous list is kept.
func (l *Library) Fetch(ctx context.Context) error {
	if l.user == nil {
		return model.ErrAuthRequired
	}
	items, err := l.repo.ListContent(ctx, l.user.ID)
	if err != nil {
		slog.Error("failed to fetch contents", "user_id", l.user.ID, "error", err)
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return nil
}

// List returns the in-memory list, newest first.
func (l *Library) List() []model.UploadedContent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := slices.Clone(l.items)
	if out == nil {
		out = []model.UploadedContent{}
	}
	return out
}

// GetByID looks id up in the last fetched list.
func (l *Library) GetByID(id string) (model.UploadedContent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.items, func(c model.UploadedContent) bool { return c.ID == id })
	if i < 0 {
		return model.UploadedContent{}, false
	}
	return l.items[i], true
}

// Delete removes id from the repository and then from the list. The
// repository is called even when id is not in the list.
func (l *Library) Delete(ctx context.Context, id string) error {
	if l.user == nil {
		return model.ErrAuthRequired
	}
	if id == "" {
		return fmt.Errorf("%w: missing content id", model.ErrInvalidParameters)
	}
	if err := l.repo.DeleteContent(ctx, l.user.ID, id); err != nil {
		slog.Error("failed to delete content", "user_id", l.user.ID, "id", id, "error", err)
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	l.mu.Lock()
	l.items = slices.DeleteFunc(l.items, func(c model.UploadedContent) bool { return c.ID == id })
	l.mu.Unlock()
	return nil
}
