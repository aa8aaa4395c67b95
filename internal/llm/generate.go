package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/model"
)

// Generator turns study content into exams, questions and summaries.
type Generator struct {
	completer Completer
}

// NewGenerator creates a Generator backed by c.
func NewGenerator(c Completer) *Generator {
	return &Generator{completer: c}
}

// Exam builds the exam prompt, completes it and parses the reply. Invalid
// parameters are rejected before any network call.
func (g *Generator) Exam(ctx context.Context, req prompts.Request) (*model.Exam, error) {
	req.Action = prompts.ActionGenerateExam
	p, err := prompts.Build(req)
	if err != nil {
		return nil, err
	}

	raw, err := g.completer.Complete(ctx, p)
	if err != nil {
		return nil, err
	}

	exam, err := ParseExam(raw)
	if err != nil {
		var perr *model.ExamParseError
		if errors.As(err, &perr) {
			slog.Error("generated exam could not be parsed", "error", perr.Err, "raw", perr.Raw)
		}
		return nil, err
	}
	slog.Info("exam generated", "title", exam.Title, "questions", len(exam.Questions))
	return exam, nil
}

// Question generates a single question, optionally focused on req.SpecificTopic.
func (g *Generator) Question(ctx context.Context, req prompts.Request) (model.Question, error) {
	req.Action = prompts.ActionGenerateQuestion
	p, err := prompts.Build(req)
	if err != nil {
		return nil, err
	}
	raw, err := g.completer.Complete(ctx, p)
	if err != nil {
		return nil, err
	}
	return ParseQuestion(raw), nil
}

// Summary returns the structured summary text of req.Content.
func (g *Generator) Summary(ctx context.Context, req prompts.Request) (string, error) {
	req.Action = prompts.ActionSummary
	p, err := prompts.Build(req)
	if err != nil {
		return "", err
	}
	return g.completer.Complete(ctx, p)
}
