package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamUnmarshal(t *testing.T) {
	data := `{
		"title": " Biología ",
		"questions": [
			{"id": 7, "type": "multiple", "text": "¿Qué?", "options": ["a", "b", "c"], "correctAnswer": 2, "explanation": "porque"},
			{"id": "x1", "type": "truefalse", "text": "¿Sí?", "correctAnswer": "verdadero"},
			{"type": "open", "text": "Explica", "keywords": ["k"]},
			{"id": 9, "type": "matching", "text": "Relaciona", "pairs": [{"item": "A", "match": "1"}]}
		]
	}`

	var e Exam
	require.NoError(t, json.Unmarshal([]byte(data), &e))
	assert.Equal(t, "Biología", e.Title)
	require.Len(t, e.Questions, 4)

	mc, ok := e.Questions[0].(MultipleChoice)
	require.True(t, ok)
	assert.Equal(t, QuestionID("7"), mc.ID)
	assert.Equal(t, 2, mc.CorrectAnswer)
	assert.Equal(t, "porque", mc.Explanation)

	tf, ok := e.Questions[1].(TrueFalse)
	require.True(t, ok)
	assert.True(t, tf.CorrectAnswer)

	open, ok := e.Questions[2].(Open)
	require.True(t, ok)
	assert.Equal(t, QuestionID("3"), open.ID, "missing id falls back to position")

	m, ok := e.Questions[3].(Matching)
	require.True(t, ok)
	assert.Len(t, m.Pairs, 1)
}

func TestExamUnmarshalEmptyQuestions(t *testing.T) {
	var e Exam
	require.NoError(t, json.Unmarshal([]byte(`{"title":"T","questions":[]}`), &e))
	assert.Equal(t, "T", e.Title)
	assert.NotNil(t, e.Questions)
	assert.Empty(t, e.Questions)
}

func TestExamUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing questions", `{"title":"T"}`},
		{"questions not array", `{"title":"T","questions":{}}`},
		{"unknown type", `{"questions":[{"type":"essay","text":"q"}]}`},
		{"missing text", `{"questions":[{"type":"open"}]}`},
		{"duplicate id", `{"questions":[{"id":1,"type":"open","text":"a"},{"id":"1","type":"open","text":"b"}]}`},
		{"index out of range", `{"questions":[{"type":"multiple","text":"q","options":["a","b"],"correctAnswer":2}]}`},
		{"negative index", `{"questions":[{"type":"multiple","text":"q","options":["a","b"],"correctAnswer":-1}]}`},
		{"fractional index", `{"questions":[{"type":"multiple","text":"q","options":["a","b"],"correctAnswer":0.5}]}`},
		{"one option", `{"questions":[{"type":"multiple","text":"q","options":["a"],"correctAnswer":0}]}`},
		{"bad boolean", `{"questions":[{"type":"truefalse","text":"q","correctAnswer":2}]}`},
		{"missing boolean", `{"questions":[{"type":"truefalse","text":"q"}]}`},
		{"malformed", `{"questions":[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Exam
			assert.Error(t, json.Unmarshal([]byte(tt.data), &e))
		})
	}
}

func TestDecodeChoiceIndex(t *testing.T) {
	options := []string{"Mitocondria", "Ribosoma", "Nucleoide"}
	tests := []struct {
		raw  string
		want int
	}{
		{`1`, 1},
		{`"2"`, 2},
		{`"ribosoma"`, 1},
		{`" Nucleoide "`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := decodeChoiceIndex(json.RawMessage(tt.raw), options)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBool(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"true"`, true},
		{`"False"`, false},
		{`"verdadero"`, true},
		{`"falso"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := DecodeBool(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, raw := range []string{`"quizá"`, `3`, `null`, `[]`} {
		_, err := DecodeBool(json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}

func TestQuestionMarshalAddsType(t *testing.T) {
	q := TrueFalse{QuestionBase: QuestionBase{ID: "4", Text: "q"}, CorrectAnswer: true}
	b, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"truefalse","id":4,"text":"q","correctAnswer":true}`, string(b))

	q2 := Open{QuestionBase: QuestionBase{ID: "a-1", Text: "q"}}
	b, err = json.Marshal(q2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"open","id":"a-1","text":"q"}`, string(b))
}

func TestExamRoundTrip(t *testing.T) {
	in := Exam{
		Title: "T",
		Questions: []Question{
			MultipleChoice{QuestionBase: QuestionBase{ID: "1", Text: "a"}, Options: []string{"x", "y"}, CorrectAnswer: 1},
			Matching{QuestionBase: QuestionBase{ID: "2", Text: "b"}, Pairs: []MatchPair{{Item: "i", Match: "m"}}},
		},
	}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Exam
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestParseQuestionType(t *testing.T) {
	for in, want := range map[string]QuestionType{
		"multiple_choice": TypeMultiple,
		"TRUE_FALSE":      TypeTrueFalse,
		" open ":          TypeOpen,
		"matching":        TypeMatching,
	} {
		got, ok := ParseQuestionType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseQuestionType("essay")
	assert.False(t, ok)
}

func TestQuestionIDMarshal(t *testing.T) {
	tests := []struct {
		id   QuestionID
		want string
	}{
		{"1", `1`},
		{"42", `42`},
		{"007", `"007"`},
		{"01", `"01"`},
		{"-0", `"-0"`},
		{"q1", `"q1"`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(tt.id)
		require.NoError(t, err)
		assert.Equal(t, tt.want, string(b), tt.id)

		var back QuestionID
		require.NoError(t, json.Unmarshal(b, &back))
		assert.Equal(t, tt.id, back)
	}
}
