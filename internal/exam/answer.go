package exam

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pavelanni/examgen/internal/model"
)

// DecodeAnswer reads a JSON answer value in the shape q expects:
// an option index, a boolean (1/0 accepted), free text, or an object mapping
// pair indices to chosen matches.
func DecodeAnswer(q model.Question, raw json.RawMessage) (model.Answer, error) {
	switch q.(type) {
	case model.MultipleChoice:
		var idx int
		if err := json.Unmarshal(raw, &idx); err != nil {
			return nil, fmt.Errorf("%w: expected an option index", model.ErrInvalidParameters)
		}
		return model.Choice(idx), nil
	case model.TrueFalse:
		b, err := decodeAnswerBool(raw)
		if err != nil {
			return nil, err
		}
		return model.Bool(b), nil
	case model.Open:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: expected text", model.ErrInvalidParameters)
		}
		return model.Text(s), nil
	case model.Matching:
		var m map[int]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("%w: expected pair index to match object", model.ErrInvalidParameters)
		}
		return model.Matches(m), nil
	default:
		panic(fmt.Sprintf("unhandled question type %T", q))
	}
}

// decodeAnswerBool accepts a JSON boolean or the numbers 1 and 0. Unlike
// model.DecodeBool it rejects strings: a student's answer is never coerced
// from text.
func decodeAnswerBool(raw json.RawMessage) (bool, error) {
	invalid := fmt.Errorf("%w: expected true, false, 1 or 0", model.ErrInvalidParameters)
	if t := strings.TrimSpace(string(raw)); t == "" || t == "null" {
		return false, invalid
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		switch n {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
	}
	return false, invalid
}

// checkAnswer validates that a fits q.
func checkAnswer(q model.Question, a model.Answer) error {
	switch q := q.(type) {
	case model.MultipleChoice:
		c, ok := a.(model.Choice)
		if !ok {
			return fmt.Errorf("%w: question %s expects an option index", model.ErrInvalidParameters, q.ID)
		}
		if int(c) < 0 || int(c) >= len(q.Options) {
			return fmt.Errorf("%w: option %d out of range", model.ErrInvalidParameters, c)
		}
	case model.TrueFalse:
		if _, ok := a.(model.Bool); !ok {
			return fmt.Errorf("%w: question %s expects true or false", model.ErrInvalidParameters, q.ID)
		}
	case model.Open:
		if _, ok := a.(model.Text); !ok {
			return fmt.Errorf("%w: question %s expects text", model.ErrInvalidParameters, q.ID)
		}
	case model.Matching:
		m, ok := a.(model.Matches)
		if !ok {
			return fmt.Errorf("%w: question %s expects matches", model.ErrInvalidParameters, q.ID)
		}
		for i := range m {
			if i < 0 || i >= len(q.Pairs) {
				return fmt.Errorf("%w: pair %d out of range", model.ErrInvalidParameters, i)
			}
		}
	default:
		panic(fmt.Sprintf("unhandled question type %T", q))
	}
	return nil
}

// merge folds a into prev. Matching answers merge per pair index and an empty
// match clears that pair; every other answer replaces the previous one.
func merge(prev, a model.Answer) model.Answer {
	m, ok := a.(model.Matches)
	if !ok {
		return a
	}
	out := model.Matches{}
	if pm, ok := prev.(model.Matches); ok {
		for i, v := range pm {
			out[i] = v
		}
	}
	for i, v := range m {
		if strings.TrimSpace(v) == "" {
			delete(out, i)
			continue
		}
		out[i] = v
	}
	return out
}
