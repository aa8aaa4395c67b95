package exam

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/model"
)

// State is the lifecycle position of a Runtime.
type State string

const (
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateSubmitted State = "submitted"
)

// Progress refines StateReady.
type Progress string

const (
	ProgressUnanswered Progress = "unanswered"
	ProgressPartial    Progress = "partial"
)

// Generator produces a new exam for Regenerate.
type Generator interface {
	Exam(ctx context.Context, req prompts.Request) (*model.Exam, error)
}

// Runtime holds one exam instance being taken: its answers, the fixed
// shuffle of matching options and, once submitted, the result.
type Runtime struct {
	mu       sync.Mutex
	rng      *rand.Rand
	gen      Generator
	req      prompts.Request
	exam     *model.Exam
	state    State
	answers  model.Answers
	shuffled map[model.QuestionID][]string
	result   *model.Result
	busy     bool
}

// NewRuntime creates a Runtime in StateLoading. src drives the shuffle of
// matching options; nil means a randomly seeded source.
func NewRuntime(gen Generator, src rand.Source) *Runtime {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Runtime{
		rng:     rand.New(src),
		gen:     gen,
		state:   StateLoading,
		answers: model.Answers{},
	}
}

// Load installs exam, clears answers and result, and computes the shuffled
// match options once for this instance.
func (r *Runtime) Load(exam *model.Exam, req prompts.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.load(exam, req)
}

func (r *Runtime) load(exam *model.Exam, req prompts.Request) {
	r.exam = exam
	r.req = req
	r.answers = model.Answers{}
	r.result = nil
	r.shuffled = make(map[model.QuestionID][]string)
	for _, q := range exam.Questions {
		m, ok := q.(model.Matching)
		if !ok {
			continue
		}
		opts := make([]string, len(m.Pairs))
		for i, p := range m.Pairs {
			opts[i] = p.Match
		}
		r.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
		r.shuffled[m.ID] = opts
	}
	r.state = StateReady
}

// State returns the current state and, in StateReady, the answer progress.
func (r *Runtime) State() (State, Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.progress()
}

func (r *Runtime) progress() Progress {
	if r.state != StateReady {
		return ""
	}
	if len(r.answers) == 0 {
		return ProgressUnanswered
	}
	return ProgressPartial
}

// Answer records a for question id. Matching answers merge per pair index.
// Answers to ids that are not in the loaded exam are ignored.
func (r *Runtime) Answer(id model.QuestionID, a model.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateSubmitted:
		return model.ErrSubmitted
	case StateLoading:
		return fmt.Errorf("%w: no exam loaded", model.ErrInvalidParameters)
	}

	q, ok := r.exam.Question(id)
	if !ok {
		slog.Debug("ignoring answer to unknown question", "question_id", id)
		return nil
	}
	if err := checkAnswer(q, a); err != nil {
		return err
	}

	merged := merge(r.answers[id], a)
	if m, ok := merged.(model.Matches); ok && len(m) == 0 {
		delete(r.answers, id)
		return nil
	}
	r.answers[id] = merged
	return nil
}

// Question returns the loaded question with the given id.
func (r *Runtime) Question(id model.QuestionID) (model.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exam == nil {
		return nil, false
	}
	return r.exam.Question(id)
}

// Submit freezes the answers and grades them.
func (r *Runtime) Submit() (model.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateSubmitted:
		return model.Result{}, model.ErrSubmitted
	case StateLoading:
		return model.Result{}, fmt.Errorf("%w: no exam loaded", model.ErrInvalidParameters)
	}
	if len(r.exam.Questions) == 0 {
		return model.Result{}, model.ErrEmptyExam
	}

	res := Grade(r.exam, r.answers)
	r.result = &res
	r.state = StateSubmitted
	return res, nil
}

// Result returns the graded result once submitted.
func (r *Runtime) Result() (model.Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return model.Result{}, false
	}
	return *r.result, true
}

// Reset clears the answers to retry the same exam. The shuffle is kept.
func (r *Runtime) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exam == nil {
		return
	}
	r.answers = model.Answers{}
	r.result = nil
	r.state = StateReady
}

// Regenerate asks the generator for a new exam using the last request. While
// a call is in flight further calls fail with model.ErrBusy. On failure the
// current exam, answers and result are left untouched.
func (r *Runtime) Regenerate(ctx context.Context) (*model.Exam, error) {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return nil, model.ErrBusy
	}
	if r.gen == nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: no generator configured", model.ErrInvalidParameters)
	}
	r.busy = true
	req := r.req
	r.mu.Unlock()

	exam, err := r.gen.Exam(ctx, req)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.busy = false
	if err != nil {
		slog.Warn("regenerate failed, keeping current exam", "error", err)
		return nil, err
	}
	r.load(exam, req)
	return exam, nil
}

// Exam returns the loaded exam, or nil in StateLoading.
func (r *Runtime) Exam() *model.Exam {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exam
}

// Answers returns a copy of the current answer set.
func (r *Runtime) Answers() model.Answers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answers.Clone()
}

// ShuffledMatches returns the display order of match options for a matching question.
func (r *Runtime) ShuffledMatches(id model.QuestionID) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	opts, ok := r.shuffled[id]
	return slices.Clone(opts), ok
}
