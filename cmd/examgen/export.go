package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pavelanni/examgen/internal/exam"
	"github.com/pavelanni/examgen/internal/export"
	"github.com/pavelanni/examgen/internal/model"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an exam JSON file as a spreadsheet or cleaned JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "", "Exam JSON file (empty for the built-in sample exam)")
	f.StringP("format", "f", string(export.FormatXLSX), "Output format (xlsx, json)")
	f.Bool("include-answers", true, "Include correct answers")
	f.Bool("include-explanations", true, "Include explanations")
	f.StringP("output", "o", "", "Output file path (- for stdout, empty to derive from the exam title)")
	addLogFlags(cmd)
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	logCloser := setupLogging(v)
	defer logCloser.Close()

	e := exam.SampleExam()
	if path := v.GetString("input"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read exam: %w", err)
		}
		var parsed model.Exam
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("parse exam %s: %w", path, err)
		}
		e = &parsed
	}

	format, err := export.ParseFormat(v.GetString("format"))
	if err != nil {
		return err
	}
	if format == export.FormatPDF {
		return fmt.Errorf("%w: PDF output is not available from the command line", model.ErrInvalidParameters)
	}

	out, err := export.Exam(e, nil, export.Options{
		FileName:            e.Title,
		Format:              format,
		IncludeAnswers:      v.GetBool("include-answers"),
		IncludeExplanations: v.GetBool("include-explanations"),
	})
	if err != nil {
		return err
	}

	path := v.GetString("output")
	if path == "" {
		path = out.FileName
	}
	if err := writeOutput(path, out.Data, format != export.FormatXLSX); err != nil {
		return err
	}
	if path != "-" {
		slog.Info("exported exam", "title", e.Title, "questions", len(e.Questions), "path", path)
	}
	return nil
}
