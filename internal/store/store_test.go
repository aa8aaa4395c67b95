package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/examgen/internal/exam"
	"github.com/pavelanni/examgen/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), model.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: "hash",
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
}

func TestContentCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.ListContent(ctx, 1)
	if err != nil {
		t.Fatalf("ListContent: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", list)
	}

	c, err := s.InsertContent(ctx, model.UploadedContent{
		OwnerID: 1,
		Title:   "Célula",
		Content: "La célula es la unidad básica de la vida.",
	})
	if err != nil {
		t.Fatalf("InsertContent: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected generated id")
	}
	if c.CreatedAt.IsZero() {
		t.Fatal("expected creation time")
	}

	got, err := s.GetContent(ctx, 1, c.ID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if got.Title != "Célula" || got.Content != c.Content || got.FileName != "" {
		t.Errorf("unexpected content: %+v", got)
	}

	// Other owners cannot see it.
	if _, err := s.GetContent(ctx, 2, c.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other owner, got %v", err)
	}

	if err := s.DeleteContent(ctx, 1, c.ID); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}
	if _, err := s.GetContent(ctx, 1, c.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting a missing id is not an error.
	if err := s.DeleteContent(ctx, 1, "missing"); err != nil {
		t.Errorf("DeleteContent missing: %v", err)
	}
}

func TestListContentNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"uno", "dos", "tres"} {
		if _, err := s.InsertContent(ctx, model.UploadedContent{
			OwnerID:  7,
			Title:    title,
			Content:  "texto " + title,
			FileName: title + ".txt",
		}); err != nil {
			t.Fatalf("InsertContent: %v", err)
		}
	}
	if _, err := s.InsertContent(ctx, model.UploadedContent{OwnerID: 8, Title: "ajeno", Content: "x"}); err != nil {
		t.Fatalf("InsertContent: %v", err)
	}

	list, err := s.ListContent(ctx, 7)
	if err != nil {
		t.Fatalf("ListContent: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 items, got %d", len(list))
	}
	want := []string{"tres", "dos", "uno"}
	for i, c := range list {
		if c.Title != want[i] {
			t.Errorf("item %d: expected %q, got %q", i, want[i], c.Title)
		}
		if c.FileName != want[i]+".txt" {
			t.Errorf("item %d: expected file name %q, got %q", i, want[i]+".txt", c.FileName)
		}
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.UserCount(ctx)
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := createTestUser(t, s, "ana")
	if _, err := s.CreateUser(ctx, model.User{Username: "ana", PasswordHash: "x"}); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}

	u, err := s.GetUserByUsername(ctx, "ana")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("expected user %d, got %+v", id, u)
	}
	if u.Role != model.UserRoleStudent {
		t.Errorf("expected default role student, got %q", u.Role)
	}

	missing, err := s.GetUserByID(ctx, 9999)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil user, got %+v", missing)
	}

	createTestUser(t, s, "luis")
	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[0].Username != "ana" || users[1].Username != "luis" {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestToggleUserActiveEndsSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createTestUser(t, s, "ana")

	token, err := s.CreateAuthSession(ctx, id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	if err := s.ToggleUserActive(ctx, id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ := s.GetUserByID(ctx, id)
	if u.Active {
		t.Error("expected user to be inactive")
	}
	sess, err := s.GetAuthSession(ctx, token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess != nil {
		t.Error("expected session to be removed for inactive user")
	}

	if err := s.ToggleUserActive(ctx, id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ = s.GetUserByID(ctx, id)
	if !u.Active {
		t.Error("expected user to be active again")
	}

	if err := s.ToggleUserActive(ctx, 9999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createTestUser(t, s, "ana")

	token, err := s.CreateAuthSession(ctx, id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("expected 64-char token, got %d", len(token))
	}

	sess, err := s.GetAuthSession(ctx, token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != id {
		t.Fatalf("expected session for user %d, got %+v", id, sess)
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("expected expiry in the future")
	}

	if err := s.DeleteAuthSession(ctx, token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, _ = s.GetAuthSession(ctx, token)
	if sess != nil {
		t.Error("expected nil session after delete")
	}

	unknown, err := s.GetAuthSession(ctx, "nope")
	if err != nil || unknown != nil {
		t.Errorf("expected nil, nil for unknown token; got %+v, %v", unknown, err)
	}
}

func TestMetadataExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetMetadata(ctx, "k", "v1", 0); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	if err := s.SetMetadata(ctx, "k", "v2", 0); err != nil {
		t.Fatalf("SetMetadata upsert: %v", err)
	}
	v, ok, err := s.GetMetadata(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("expected v2, got %q ok=%v err=%v", v, ok, err)
	}

	if err := s.SetMetadata(ctx, "gone", "x", time.Nanosecond); err != nil {
		t.Fatalf("SetMetadata: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := s.GetMetadata(ctx, "gone"); ok {
		t.Error("expected expired key to be missing")
	}

	if _, ok, _ := s.GetMetadata(ctx, "never-set"); ok {
		t.Error("expected missing key")
	}
}

func TestHandoffSlots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	slots := NewHandoffSlots(s, exam.HandoffKey, time.Hour)

	got, ok := exam.LoadHandoff(ctx, slots, 5)
	if ok {
		t.Fatal("expected empty slot to fall back to the sample exam")
	}
	if got.Title != exam.SampleExam().Title {
		t.Errorf("expected sample exam, got %q", got.Title)
	}

	e := &model.Exam{
		Title: "Historia",
		Questions: []model.Question{
			model.TrueFalse{QuestionBase: model.QuestionBase{ID: "1", Text: "¿Roma cayó en 476?"}, CorrectAnswer: true},
		},
	}
	if err := slots.Put(ctx, 5, e); err != nil {
		t.Fatalf("Put: %v", err)
	}

	raw, err := slots.Get(ctx, 5)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var decoded model.Exam
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("stored exam is not valid JSON: %v", err)
	}

	got, ok = exam.LoadHandoff(ctx, slots, 5)
	if !ok || got.Title != "Historia" || len(got.Questions) != 1 {
		t.Errorf("expected stored exam, got %+v ok=%v", got, ok)
	}

	// Slots are per owner.
	if raw, _ := slots.Get(ctx, 6); raw != nil {
		t.Errorf("expected empty slot for another owner, got %s", raw)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	id := createTestUser(t, s, "ana")
	token, err := s.CreateAuthSession(ctx, id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`, time.Now().UTC().Add(-time.Hour), token); err != nil {
		t.Fatalf("expire session: %v", err)
	}
	if err := s.CleanupExpiredSessions(ctx); err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auth_sessions`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 sessions, got %d", n)
	}
}
