package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// QuestionType tags the variants of Question.
type QuestionType string

const (
	TypeMultiple  QuestionType = "multiple"
	TypeTrueFalse QuestionType = "truefalse"
	TypeOpen      QuestionType = "open"
	TypeMatching  QuestionType = "matching"
)

// QuestionTypes lists every supported variant in display order.
var QuestionTypes = []QuestionType{TypeMultiple, TypeTrueFalse, TypeOpen, TypeMatching}

var typeAliases = map[string]QuestionType{
	"multiple":        TypeMultiple,
	"multiple_choice": TypeMultiple,
	"multiplechoice":  TypeMultiple,
	"truefalse":       TypeTrueFalse,
	"true_false":      TypeTrueFalse,
	"true-false":      TypeTrueFalse,
	"boolean":         TypeTrueFalse,
	"open":            TypeOpen,
	"open_ended":      TypeOpen,
	"matching":        TypeMatching,
}

// ParseQuestionType normalizes a generator-supplied type tag.
func ParseQuestionType(s string) (QuestionType, bool) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// QuestionID identifies a question within one exam. Generators emit numbers or
// strings; both are kept in string form.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = QuestionID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("question id: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// MarshalJSON writes canonical integers as numbers and everything else,
// including "007", as strings, so ids survive a round trip.
func (id QuestionID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// Question is a closed sum type over MultipleChoice, TrueFalse, Open and Matching.
type Question interface {
	Header() QuestionBase
	Kind() QuestionType
	isQuestion()
}

// QuestionBase holds the fields every variant carries.
type QuestionBase struct {
	ID          QuestionID `json:"id"`
	Text        string     `json:"text"`
	Explanation string     `json:"explanation,omitempty"`
}

func (b QuestionBase) Header() QuestionBase { return b }

// MultipleChoice is correct when the selected index equals CorrectAnswer.
type MultipleChoice struct {
	QuestionBase
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// TrueFalse is correct when the selected value equals CorrectAnswer.
type TrueFalse struct {
	QuestionBase
	CorrectAnswer bool `json:"correctAnswer"`
}

// Open is never auto-graded.
type Open struct {
	QuestionBase
	Keywords []string `json:"keywords,omitempty"`
}

// Matching is correct when every item is matched with its paired match.
type Matching struct {
	QuestionBase
	Pairs []MatchPair `json:"pairs"`
}

// MatchPair is one row of a matching question.
type MatchPair struct {
	Item  string `json:"item"`
	Match string `json:"match"`
}

func (MultipleChoice) Kind() QuestionType { return TypeMultiple }
func (TrueFalse) Kind() QuestionType      { return TypeTrueFalse }
func (Open) Kind() QuestionType           { return TypeOpen }
func (Matching) Kind() QuestionType       { return TypeMatching }

func (MultipleChoice) isQuestion() {}
func (TrueFalse) isQuestion()      {}
func (Open) isQuestion()           {}
func (Matching) isQuestion()       {}

func (q MultipleChoice) MarshalJSON() ([]byte, error) {
	type alias MultipleChoice
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		alias
	}{TypeMultiple, alias(q)})
}

func (q TrueFalse) MarshalJSON() ([]byte, error) {
	type alias TrueFalse
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		alias
	}{TypeTrueFalse, alias(q)})
}

func (q Open) MarshalJSON() ([]byte, error) {
	type alias Open
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		alias
	}{TypeOpen, alias(q)})
}

func (q Matching) MarshalJSON() ([]byte, error) {
	type alias Matching
	return json.Marshal(struct {
		Type QuestionType `json:"type"`
		alias
	}{TypeMatching, alias(q)})
}

// Exam is a generated exam.
type Exam struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Question returns the question with the given id.
func (e *Exam) Question(id QuestionID) (Question, bool) {
	for _, q := range e.Questions {
		if q.Header().ID == id {
			return q, true
		}
	}
	return nil, false
}

// UnmarshalJSON requires a questions array and decodes each entry by its type tag.
// Missing ids are assigned from the position; duplicate ids are rejected.
func (e *Exam) UnmarshalJSON(b []byte) error {
	var raw struct {
		Title     string             `json:"title"`
		Questions *[]json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Questions == nil {
		return errors.New("missing questions array")
	}

	questions := make([]Question, 0, len(*raw.Questions))
	seen := make(map[QuestionID]bool, len(*raw.Questions))
	for i, rq := range *raw.Questions {
		q, err := DecodeQuestion(rq)
		if err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		if q.Header().ID == "" {
			q = WithID(q, QuestionID(strconv.Itoa(i+1)))
		}
		id := q.Header().ID
		if seen[id] {
			return fmt.Errorf("question %d: duplicate id %q", i+1, id)
		}
		seen[id] = true
		questions = append(questions, q)
	}

	e.Title = strings.TrimSpace(raw.Title)
	e.Questions = questions
	return nil
}

// WithID returns a copy of q carrying id.
func WithID(q Question, id QuestionID) Question {
	switch v := q.(type) {
	case MultipleChoice:
		v.ID = id
		return v
	case TrueFalse:
		v.ID = id
		return v
	case Open:
		v.ID = id
		return v
	case Matching:
		v.ID = id
		return v
	default:
		panic(fmt.Sprintf("unhandled question type %T", q))
	}
}

type rawQuestion struct {
	ID            QuestionID      `json:"id"`
	Type          string          `json:"type"`
	Text          string          `json:"text"`
	Question      string          `json:"question"`
	Explanation   string          `json:"explanation"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
	Pairs         []MatchPair     `json:"pairs"`
	Keywords      []string        `json:"keywords"`
}

// DecodeQuestion decodes a single question object. Booleans may arrive as 1/0
// or strings, and option indices as numeric strings or as the option text.
func DecodeQuestion(b []byte) (Question, error) {
	var rq rawQuestion
	if err := json.Unmarshal(b, &rq); err != nil {
		return nil, err
	}
	qt, ok := ParseQuestionType(rq.Type)
	if !ok {
		return nil, fmt.Errorf("unknown question type %q", rq.Type)
	}

	text := strings.TrimSpace(rq.Text)
	if text == "" {
		text = strings.TrimSpace(rq.Question)
	}
	if text == "" {
		return nil, errors.New("missing question text")
	}
	base := QuestionBase{ID: rq.ID, Text: text, Explanation: strings.TrimSpace(rq.Explanation)}

	switch qt {
	case TypeMultiple:
		if len(rq.Options) < 2 {
			return nil, fmt.Errorf("multiple choice needs at least two options, got %d", len(rq.Options))
		}
		idx, err := decodeChoiceIndex(rq.CorrectAnswer, rq.Options)
		if err != nil {
			return nil, err
		}
		return MultipleChoice{QuestionBase: base, Options: rq.Options, CorrectAnswer: idx}, nil
	case TypeTrueFalse:
		v, err := DecodeBool(rq.CorrectAnswer)
		if err != nil {
			return nil, fmt.Errorf("correctAnswer: %w", err)
		}
		return TrueFalse{QuestionBase: base, CorrectAnswer: v}, nil
	case TypeOpen:
		return Open{QuestionBase: base, Keywords: rq.Keywords}, nil
	case TypeMatching:
		pairs := rq.Pairs
		if pairs == nil {
			pairs = []MatchPair{}
		}
		return Matching{QuestionBase: base, Pairs: pairs}, nil
	default:
		panic(fmt.Sprintf("unhandled question type %q", qt))
	}
}

func decodeChoiceIndex(raw json.RawMessage, options []string) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, errors.New("missing correctAnswer")
	}

	var idx int
	var f float64
	var s string
	switch {
	case json.Unmarshal(raw, &f) == nil:
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("correctAnswer %v is not an index", f)
		}
		idx = int(f)
	case json.Unmarshal(raw, &s) == nil:
		s = strings.TrimSpace(s)
		if n, err := strconv.Atoi(s); err == nil {
			idx = n
			break
		}
		found := false
		for i, opt := range options {
			if strings.EqualFold(strings.TrimSpace(opt), s) {
				idx, found = i, true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("correctAnswer %q matches no option", s)
		}
	default:
		return 0, fmt.Errorf("correctAnswer %s is not an index", raw)
	}

	if idx < 0 || idx >= len(options) {
		return 0, fmt.Errorf("correctAnswer %d out of range for %d options", idx, len(options))
	}
	return idx, nil
}

// DecodeBool reads true/false, 1/0 and their common string spellings.
func DecodeBool(raw json.RawMessage) (bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false, errors.New("missing value")
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		switch f {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
		return false, fmt.Errorf("%v is not a boolean", f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "verdadero", "1":
			return true, nil
		case "false", "falso", "0":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean", s)
	}
	return false, fmt.Errorf("%s is not a boolean", raw)
}
