package model

import "errors"

var (
	// ErrAuthRequired is returned by mutating content operations without a signed-in user.
	ErrAuthRequired = errors.New("authentication required")
	// ErrPersistence wraps store, fetch and delete failures.
	ErrPersistence = errors.New("persistence error")
	// ErrGenerationFailed wraps completion transport failures and unusable responses.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrInvalidParameters blocks an action before any network call.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrBusy rejects re-entrant triggering of an action that is still in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrSubmitted rejects answers once the exam is frozen.
	ErrSubmitted = errors.New("exam already submitted")
	// ErrEmptyExam rejects submitting an exam without questions.
	ErrEmptyExam = errors.New("exam has no questions")
	// ErrNotFound is returned for lookups of unknown records.
	ErrNotFound = errors.New("not found")
)

// ExamParseError reports completion text that did not yield a valid exam.
// Raw carries the full completion for diagnostics.
type ExamParseError struct {
	Raw string
	Err error
}

func (e *ExamParseError) Error() string {
	return "parse exam: " + e.Err.Error()
}

func (e *ExamParseError) Unwrap() error {
	return e.Err
}
