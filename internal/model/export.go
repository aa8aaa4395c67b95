package model

import "time"

// ExamExport is the top-level JSON structure for exam export.
type ExamExport struct {
	Title        string           `json:"title"`
	Kind         string           `json:"kind"`
	ExportedAt   time.Time        `json:"exported_at"`
	NumQuestions int              `json:"num_questions"`
	Questions    []ExportQuestion `json:"questions"`
	Result       *Result          `json:"result,omitempty"`
}

// ExportQuestion holds per-question data for export. Answer and explanation
// fields are left empty unless the caller asked for them.
type ExportQuestion struct {
	ID            QuestionID   `json:"id"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Options       []string     `json:"options,omitempty"`
	Pairs         []MatchPair  `json:"pairs,omitempty"`
	Keywords      []string     `json:"keywords,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
}
