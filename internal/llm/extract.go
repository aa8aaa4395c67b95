package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/pavelanni/examgen/internal/model"
)

var (
	jsonFenceRegex = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	fenceRegex     = regexp.MustCompile("```\\s*([\\s\\S]*?)\\s*```")
	braceRegex     = regexp.MustCompile(`\{[\s\S]*\}`)
)

var errNoObject = errors.New("no JSON object found in completion")

// ExtractJSON recovers a single JSON object from completion text. The first
// match wins among a json fence, a bare fence and the widest brace span; with
// none of them the whole text is the candidate. Characters before the first
// '{' and after the last '}' are then dropped.
func ExtractJSON(text string) (string, error) {
	candidate := text
	if m := jsonFenceRegex.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if m := fenceRegex.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if m := braceRegex.FindString(text); m != "" {
		candidate = m
	}

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start < 0 || end < start {
		return "", errNoObject
	}
	return candidate[start : end+1], nil
}

// ParseExam extracts and decodes an exam. Any failure yields a
// *model.ExamParseError carrying the full completion; no partial exam is returned.
func ParseExam(text string) (*model.Exam, error) {
	candidate, err := ExtractJSON(text)
	if err != nil {
		return nil, &model.ExamParseError{Raw: text, Err: err}
	}

	var exam model.Exam
	if err := json.Unmarshal([]byte(candidate), &exam); err != nil {
		return nil, &model.ExamParseError{Raw: text, Err: err}
	}
	return &exam, nil
}

// ParseQuestion never fails: a JSON object describing a known question type
// becomes that question, anything else becomes an open question holding the
// completion verbatim. A JSON string payload is unquoted first.
func ParseQuestion(text string) model.Question {
	if candidate, err := ExtractJSON(text); err == nil {
		if q, err := model.DecodeQuestion([]byte(candidate)); err == nil {
			if q.Header().ID == "" {
				q = model.WithID(q, "1")
			}
			return q
		}
	}
	var plain string
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &plain); err == nil {
		text = plain
	}
	return model.Open{QuestionBase: model.QuestionBase{ID: "1", Text: text}}
}
