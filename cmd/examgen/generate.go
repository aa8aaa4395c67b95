package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pavelanni/examgen/internal/export"
	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/model"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an exam, a question or a summary from a text file",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "-", "Study material file (- for stdin)")
	f.String("action", string(prompts.ActionGenerateExam), "What to generate (generateExam, generateQuestion, summary)")
	f.StringP("difficulty", "d", string(model.DifficultyMedium), "Exam difficulty (bajo, medio, alto)")
	f.StringSliceP("types", "t", []string{string(model.TypeMultiple), string(model.TypeTrueFalse)}, "Question types (multiple, truefalse, open, matching)")
	f.IntP("count", "n", 5, "Number of questions")
	f.String("topic", "", "Specific topic for a single question")
	f.StringP("format", "f", string(export.FormatJSON), "Exam output format (json, xlsx)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLLMFlags(cmd)
	addLogFlags(cmd)
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logCloser := setupLogging(v)
	defer logCloser.Close()
	ctx := cmd.Context()

	text, err := readInput(v.GetString("input"))
	if err != nil {
		return err
	}

	gen, err := newGenerator(ctx, v, false)
	if err != nil {
		return err
	}
	if gen == nil {
		return fmt.Errorf("an LLM API key is required: set --llm-key or EXAMGEN_LLM_KEY")
	}

	req := prompts.Request{
		Action:        prompts.Action(v.GetString("action")),
		Content:       text,
		Difficulty:    v.GetString("difficulty"),
		QuestionTypes: v.GetStringSlice("types"),
		QuestionCount: v.GetInt("count"),
		SpecificTopic: v.GetString("topic"),
	}

	var data []byte
	isText := true
	switch req.Action {
	case prompts.ActionGenerateExam:
		e, err := gen.Exam(ctx, req)
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(v.GetString("format"))
		if err != nil {
			return err
		}
		if format == export.FormatPDF {
			return fmt.Errorf("%w: PDF output is not available from the command line", model.ErrInvalidParameters)
		}
		out, err := export.Exam(e, nil, export.Options{
			Format:              format,
			IncludeAnswers:      true,
			IncludeExplanations: true,
		})
		if err != nil {
			return err
		}
		data = out.Data
		isText = format != export.FormatXLSX
	case prompts.ActionGenerateQuestion:
		q, err := gen.Question(ctx, req)
		if err != nil {
			return err
		}
		if data, err = json.MarshalIndent(q, "", "  "); err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
	default:
		s, err := gen.Summary(ctx, req)
		if err != nil {
			return err
		}
		data = []byte(s)
	}

	slog.Debug("generation finished", "action", req.Action, "bytes", len(data))
	return writeOutput(v.GetString("output"), data, isText)
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("%w: input is empty", model.ErrInvalidParameters)
	}
	return string(data), nil
}

// writeOutput writes data to path, or to stdout for "" and "-". Text gets a
// trailing newline on stdout; binary data such as xlsx is written unchanged.
func writeOutput(path string, data []byte, text bool) error {
	if path == "" || path == "-" {
		return writeData(os.Stdout, data, text)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	return writeData(f, data, false)
}

func writeData(w io.Writer, data []byte, newline bool) error {
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if newline && len(data) > 0 && data[len(data)-1] != '\n' {
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
