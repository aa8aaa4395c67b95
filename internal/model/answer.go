package model

import "maps"

// Answer is a closed sum type over Choice, Bool, Text and Matches.
type Answer interface {
	isAnswer()
}

// Choice is the selected option index of a multiple choice question.
type Choice int

// Bool is the selected value of a true/false question.
type Bool bool

// Text is the free-form reply to an open question.
type Text string

// Matches maps a pair index to the chosen match string.
type Matches map[int]string

func (Choice) isAnswer()  {}
func (Bool) isAnswer()    {}
func (Text) isAnswer()    {}
func (Matches) isAnswer() {}

// Answers is the answer set of one exam instance.
type Answers map[QuestionID]Answer

// Clone returns a deep copy so callers cannot mutate the runtime's set.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for id, v := range a {
		if m, ok := v.(Matches); ok {
			v = Matches(maps.Clone(m))
		}
		out[id] = v
	}
	return out
}

// Verdict is the grading outcome of one question.
type Verdict string

const (
	VerdictCorrect      Verdict = "correct"
	VerdictIncorrect    Verdict = "incorrect"
	VerdictManualReview Verdict = "manual_review"
)

// QuestionResult is the graded view of one question.
type QuestionResult struct {
	ID          QuestionID   `json:"id"`
	Type        QuestionType `json:"type"`
	Verdict     Verdict      `json:"verdict"`
	Answered    bool         `json:"answered"`
	Explanation string       `json:"explanation,omitempty"`
}

// Result is the aggregate score of a submitted exam. Open questions are
// excluded from Correct and Total and listed in PendingReview.
type Result struct {
	Questions     []QuestionResult `json:"questions"`
	Correct       int              `json:"correct"`
	Total         int              `json:"total"`
	Percent       float64          `json:"percent"`
	PendingReview []QuestionID     `json:"pending_review"`
}
