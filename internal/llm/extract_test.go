package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/examgen/internal/model"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "json fence with prose",
			text: "prefix ```json {\"title\":\"T\",\"questions\":[]} ``` suffix",
			want: `{"title":"T","questions":[]}`,
		},
		{
			name: "bare fence",
			text: "Aquí tienes:\n```\n{\"a\":1}\n```\nSaludos",
			want: `{"a":1}`,
		},
		{
			name: "fence with other language tag",
			text: "```javascript\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "json fence wins over bare fence",
			text: "```\n{\"b\":2}\n```\n```json\n{\"a\":1}\n```",
			want: `{"a":1}`,
		},
		{
			name: "greedy braces",
			text: `El examen es {"a":{"b":1}} y nada más.`,
			want: `{"a":{"b":1}}`,
		},
		{
			name: "whole text",
			text: `{"a":1}`,
			want: `{"a":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONNoBraces(t *testing.T) {
	_, err := ExtractJSON("Lo siento, no puedo generar el examen.")
	assert.Error(t, err)
}

func TestParseExamRoundTrip(t *testing.T) {
	exam, err := ParseExam("prefix ```json {\"title\":\"T\",\"questions\":[]} ``` suffix")
	require.NoError(t, err)
	assert.Equal(t, "T", exam.Title)
	assert.NotNil(t, exam.Questions)
	assert.Empty(t, exam.Questions)
}

func TestParseExamFailures(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no braces", "sin json aquí"},
		{"malformed", "```json\n{\"title\": \"T\", \"questions\": [\n```"},
		{"missing questions", `{"title":"T"}`},
		{"questions not array", `{"title":"T","questions":"ninguna"}`},
		{"unknown type", `{"title":"T","questions":[{"id":1,"type":"essay","text":"q"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exam, err := ParseExam(tt.text)
			assert.Nil(t, exam)
			var perr *model.ExamParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.text, perr.Raw)
		})
	}
}

func TestParseExamMultipleChoiceInRange(t *testing.T) {
	text := "```json\n" + `{"title":"Fotosíntesis","questions":[
		{"id":1,"type":"multiple","text":"a","options":["w","x","y","z"],"correctAnswer":3},
		{"id":2,"type":"multiple","text":"b","options":["w","x"],"correctAnswer":"0"}
	]}` + "\n```"
	exam, err := ParseExam(text)
	require.NoError(t, err)
	require.Len(t, exam.Questions, 2)
	for _, q := range exam.Questions {
		mc, ok := q.(model.MultipleChoice)
		require.True(t, ok)
		assert.GreaterOrEqual(t, mc.CorrectAnswer, 0)
		assert.Less(t, mc.CorrectAnswer, len(mc.Options))
	}
}

func TestParseQuestion(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		q := ParseQuestion("```json\n{\"type\":\"truefalse\",\"text\":\"¿El ADN está en el núcleo?\",\"correctAnswer\":\"verdadero\"}\n```")
		tf, ok := q.(model.TrueFalse)
		require.True(t, ok)
		assert.True(t, tf.CorrectAnswer)
		assert.Equal(t, model.QuestionID("1"), tf.ID)
	})

	t.Run("prose", func(t *testing.T) {
		raw := "Pregunta: ¿Qué orgánulo produce ATP?\nRespuesta: la mitocondria."
		q := ParseQuestion(raw)
		open, ok := q.(model.Open)
		require.True(t, ok)
		assert.Equal(t, raw, open.Text)
	})

	t.Run("json string", func(t *testing.T) {
		q := ParseQuestion(`"¿Qué es la osmosis?"`)
		open, ok := q.(model.Open)
		require.True(t, ok)
		assert.Equal(t, "¿Qué es la osmosis?", open.Text)
	})

	t.Run("object with unknown type", func(t *testing.T) {
		raw := `{"type":"essay","text":"Escribe"}`
		q := ParseQuestion(raw)
		open, ok := q.(model.Open)
		require.True(t, ok)
		assert.Equal(t, raw, open.Text)
	})
}
