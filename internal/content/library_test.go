package content

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examgen/internal/model"
)

type fakeRepo struct {
	items     []model.UploadedContent
	next      int
	err       error
	inserts   int
	deletes   []string
	listCalls int
}

func (f *fakeRepo) InsertContent(_ context.Context, c model.UploadedContent) (model.UploadedContent, error) {
	f.inserts++
	if f.err != nil {
		return model.UploadedContent{}, f.err
	}
	f.next++
	c.ID = fmt.Sprintf("c%d", f.next)
	c.CreatedAt = time.Date(2025, 1, f.next, 0, 0, 0, 0, time.UTC)
	f.items = append([]model.UploadedContent{c}, f.items...)
	return c, nil
}

func (f *fakeRepo) ListContent(_ context.Context, owner int64) ([]model.UploadedContent, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []model.UploadedContent
	for _, c := range f.items {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteContent(_ context.Context, _ int64, id string) error {
	f.deletes = append(f.deletes, id)
	return f.err
}

var student = &model.User{ID: 3, Username: "ana", Role: model.UserRoleStudent, Active: true}

func TestLibrarySaveWithoutUser(t *testing.T) {
	repo := &fakeRepo{}
	lib := NewLibrary(repo, nil)

	c, err := lib.Save(context.Background(), "texto", "", "")
	assert.ErrorIs(t, err, model.ErrAuthRequired)
	assert.Equal(t, model.UploadedContent{}, c)
	assert.Empty(t, lib.List())
	assert.Zero(t, repo.inserts)

	assert.ErrorIs(t, lib.Fetch(context.Background()), model.ErrAuthRequired)
	assert.ErrorIs(t, lib.Delete(context.Background(), "c1"), model.ErrAuthRequired)
	assert.Empty(t, repo.deletes)
}

func TestLibrarySaveDerivesTitle(t *testing.T) {
	lib := NewLibrary(&fakeRepo{}, student)

	c, err := lib.Save(context.Background(), "Fotosíntesis: proceso...", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Fotosíntesis: proceso...", c.Title)
	assert.Equal(t, int64(3), c.OwnerID)

	c, err = lib.Save(context.Background(), "texto", "  Mi título ", "")
	require.NoError(t, err)
	assert.Equal(t, "Mi título", c.Title)
}

func TestLibrarySaveEmpty(t *testing.T) {
	repo := &fakeRepo{}
	lib := NewLibrary(repo, student)
	_, err := lib.Save(context.Background(), " \n\t", "t", "")
	assert.ErrorIs(t, err, model.ErrInvalidParameters)
	assert.Zero(t, repo.inserts)
}

func TestLibraryNewestFirst(t *testing.T) {
	lib := NewLibrary(&fakeRepo{}, student)
	for _, text := range []string{"uno", "dos", "tres"} {
		_, err := lib.Save(context.Background(), text, "", "")
		require.NoError(t, err)
	}
	list := lib.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"tres", "dos", "uno"}, []string{list[0].Content, list[1].Content, list[2].Content})

	require.NoError(t, lib.Fetch(context.Background()))
	assert.Equal(t, list, lib.List())
}

func TestLibrarySavePersistenceError(t *testing.T) {
	repo := &fakeRepo{}
	lib := NewLibrary(repo, student)
	_, err := lib.Save(context.Background(), "uno", "", "")
	require.NoError(t, err)

	repo.err = errors.New("disk full")
	_, err = lib.Save(context.Background(), "dos", "", "")
	assert.ErrorIs(t, err, model.ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")
	assert.Len(t, lib.List(), 1)

	assert.ErrorIs(t, lib.Fetch(context.Background()), model.ErrPersistence)
	assert.Len(t, lib.List(), 1, "failed fetch keeps the previous list")
}

func TestLibraryGetByIDIsInMemory(t *testing.T) {
	repo := &fakeRepo{}
	lib := NewLibrary(repo, student)
	c, err := lib.Save(context.Background(), "uno", "", "")
	require.NoError(t, err)

	got, ok := lib.GetByID(c.ID)
	require.True(t, ok)
	assert.Equal(t, c, got)

	repo.items = append(repo.items, model.UploadedContent{ID: "remote", OwnerID: 3, Content: "x"})
	_, ok = lib.GetByID("remote")
	assert.False(t, ok)
	assert.Zero(t, repo.listCalls)
}

func TestLibraryDelete(t *testing.T) {
	repo := &fakeRepo{}
	lib := NewLibrary(repo, student)
	c, err := lib.Save(context.Background(), "uno", "", "")
	require.NoError(t, err)

	require.NoError(t, lib.Delete(context.Background(), "missing"))
	assert.Equal(t, []string{"missing"}, repo.deletes, "unknown id still reaches the repository")
	assert.Len(t, lib.List(), 1)

	require.NoError(t, lib.Delete(context.Background(), c.ID))
	assert.Empty(t, lib.List())

	_, err = lib.Save(context.Background(), "dos", "", "")
	require.NoError(t, err)
	repo.err = errors.New("timeout")
	assert.ErrorIs(t, lib.Delete(context.Background(), "c2"), model.ErrPersistence)
	assert.Len(t, lib.List(), 1)

	assert.ErrorIs(t, lib.Delete(context.Background(), ""), model.ErrInvalidParameters)
}
