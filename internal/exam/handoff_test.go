package exam

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examgen/internal/model"
)

func generatedExam() *model.Exam {
	return &model.Exam{Title: "Fotosíntesis", Questions: []model.Question{
		model.MultipleChoice{QuestionBase: model.QuestionBase{ID: "1", Text: "¿Dónde?"}, Options: []string{"Cloroplasto", "Núcleo"}},
	}}
}

func TestMemoryHandoff(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHandoff(time.Minute)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	e, ok := LoadHandoff(ctx, h, 1)
	assert.False(t, ok)
	assert.Equal(t, SampleExam(), e)

	require.NoError(t, h.Put(ctx, 1, generatedExam()))
	e, ok = LoadHandoff(ctx, h, 1)
	require.True(t, ok)
	assert.Equal(t, generatedExam(), e)

	_, ok = LoadHandoff(ctx, h, 2)
	assert.False(t, ok, "slots are per owner")

	now = now.Add(2 * time.Minute)
	_, ok = LoadHandoff(ctx, h, 1)
	assert.False(t, ok, "expired slot falls back")
}

func TestMemoryHandoffCorrupt(t *testing.T) {
	h := NewMemoryHandoff(0)
	h.PutRaw(1, []byte(`{"title":"roto"`))
	e, ok := LoadHandoff(context.Background(), h, 1)
	assert.False(t, ok)
	assert.Equal(t, "Biología Celular - Examen", e.Title)

	h.PutRaw(1, []byte(`{"title":"sin preguntas"}`))
	_, ok = LoadHandoff(context.Background(), h, 1)
	assert.False(t, ok)
}

func TestRedisHandoff(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := NewRedisHandoff(client, time.Hour)
	_, ok := LoadHandoff(ctx, h, 7)
	assert.False(t, ok)

	require.NoError(t, h.Put(ctx, 7, generatedExam()))
	assert.True(t, mr.Exists("generatedExam:7"))

	e, ok := LoadHandoff(ctx, h, 7)
	require.True(t, ok)
	assert.Equal(t, generatedExam(), e)

	mr.FastForward(2 * time.Hour)
	_, ok = LoadHandoff(ctx, h, 7)
	assert.False(t, ok)

	require.NoError(t, mr.Set("generatedExam:7", "no es json"))
	e, ok = LoadHandoff(ctx, h, 7)
	assert.False(t, ok)
	assert.Equal(t, SampleExam(), e)
}

func TestRedisHandoffUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	e, ok := LoadHandoff(context.Background(), NewRedisHandoff(client, time.Hour), 1)
	assert.False(t, ok)
	assert.Equal(t, SampleExam(), e)
}

func TestHandoffKeepsLeadingZeroIDs(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHandoff(0)
	in := &model.Exam{Title: "Ceros", Questions: []model.Question{
		model.TrueFalse{QuestionBase: model.QuestionBase{ID: "01", Text: "a"}, CorrectAnswer: true},
		model.TrueFalse{QuestionBase: model.QuestionBase{ID: "1", Text: "b"}},
		model.Open{QuestionBase: model.QuestionBase{ID: "007", Text: "c"}},
	}}
	require.NoError(t, h.Put(ctx, 1, in))

	out, ok := LoadHandoff(ctx, h, 1)
	require.True(t, ok)
	assert.Equal(t, in, out)
}
