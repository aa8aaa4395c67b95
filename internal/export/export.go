// Package export renders exams and summaries for download.
package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/examgen/internal/model"
)

// Format is the output file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// Kind says what is being exported.
type Kind string

const (
	KindExam    Kind = "exam"
	KindSummary Kind = "summary"
)

// DefaultFileName is used when neither a file name nor a title is given.
const DefaultFileName = "Documento"

// Options controls an export. IncludeAnswers and IncludeExplanations only
// apply to exams.
type Options struct {
	FileName            string
	Format              Format
	Kind                Kind
	IncludeAnswers      bool
	IncludeExplanations bool
	// TypeLabel names a question type in the sheet. Nil uses the Spanish labels.
	TypeLabel func(model.QuestionType) string
	Now       func() time.Time
}

// Result is a rendered file. Simulated results carry no data.
type Result struct {
	FileName    string
	ContentType string
	Simulated   bool
	Data        []byte
}

var defaultLabels = map[model.QuestionType]string{
	model.TypeMultiple:  "Opción Múltiple",
	model.TypeTrueFalse: "Verdadero/Falso",
	model.TypeOpen:      "Respuesta Abierta",
	model.TypeMatching:  "Relacionar Columnas",
}

// ParseFormat accepts pdf, xlsx and json, case-insensitively. Empty means pdf.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatXLSX, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", model.ErrInvalidParameters, s)
	}
}

// Exam renders e with opts. res, when non-nil, is included in JSON exports.
func Exam(e *model.Exam, res *model.Result, opts Options) (Result, error) {
	if e == nil {
		return Result{}, fmt.Errorf("%w: no exam to export", model.ErrInvalidParameters)
	}
	opts = opts.withDefaults(e.Title)
	out := Result{FileName: fileName(opts)}

	switch opts.Format {
	case FormatPDF:
		out.Simulated = true
		out.ContentType = "application/pdf"
		return out, nil
	case FormatXLSX:
		data, err := examSheet(e, opts)
		if err != nil {
			return Result{}, err
		}
		out.ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		out.Data = data
		return out, nil
	case FormatJSON:
		doc := examDocument(e, opts)
		doc.Result = res
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return Result{}, fmt.Errorf("marshal export: %w", err)
		}
		out.ContentType = "application/json"
		out.Data = data
		return out, nil
	default:
		return Result{}, fmt.Errorf("%w: unknown export format %q", model.ErrInvalidParameters, opts.Format)
	}
}

// Summary renders a generated summary. Only PDF (simulated) and JSON are supported.
func Summary(title, text string, opts Options) (Result, error) {
	opts.Kind = KindSummary
	opts = opts.withDefaults(title)
	out := Result{FileName: fileName(opts)}

	switch opts.Format {
	case FormatPDF:
		out.Simulated = true
		out.ContentType = "application/pdf"
		return out, nil
	case FormatJSON:
		data, err := json.MarshalIndent(struct {
			Title      string    `json:"title"`
			Kind       Kind      `json:"kind"`
			ExportedAt time.Time `json:"exported_at"`
			Summary    string    `json:"summary"`
		}{title, KindSummary, opts.Now().UTC(), text}, "", "  ")
		if err != nil {
			return Result{}, fmt.Errorf("marshal export: %w", err)
		}
		out.ContentType = "application/json"
		out.Data = data
		return out, nil
	default:
		return Result{}, fmt.Errorf("%w: summaries cannot be exported as %s", model.ErrInvalidParameters, opts.Format)
	}
}

func (o Options) withDefaults(title string) Options {
	if o.Format == "" {
		o.Format = FormatPDF
	}
	if o.Kind == "" {
		o.Kind = KindExam
	}
	o.FileName = strings.TrimSpace(o.FileName)
	if o.FileName == "" {
		o.FileName = strings.TrimSpace(title)
	}
	if o.FileName == "" {
		o.FileName = DefaultFileName
	}
	if o.TypeLabel == nil {
		o.TypeLabel = func(t model.QuestionType) string { return defaultLabels[t] }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func fileName(o Options) string {
	ext := "." + string(o.Format)
	if strings.HasSuffix(strings.ToLower(o.FileName), ext) {
		return o.FileName
	}
	return o.FileName + ext
}

func examDocument(e *model.Exam, opts Options) model.ExamExport {
	doc := model.ExamExport{
		Title:        e.Title,
		Kind:         string(KindExam),
		ExportedAt:   opts.Now().UTC(),
		NumQuestions: len(e.Questions),
		Questions:    make([]model.ExportQuestion, 0, len(e.Questions)),
	}
	for _, q := range e.Questions {
		doc.Questions = append(doc.Questions, exportQuestion(q, opts))
	}
	return doc
}

func exportQuestion(q model.Question, opts Options) model.ExportQuestion {
	h := q.Header()
	eq := model.ExportQuestion{ID: h.ID, Type: q.Kind(), Text: h.Text}
	if opts.IncludeExplanations {
		eq.Explanation = h.Explanation
	}
	switch q := q.(type) {
	case model.MultipleChoice:
		eq.Options = q.Options
		if opts.IncludeAnswers && q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
			eq.CorrectAnswer = q.Options[q.CorrectAnswer]
		}
	case model.TrueFalse:
		if opts.IncludeAnswers {
			eq.CorrectAnswer = strconv.FormatBool(q.CorrectAnswer)
		}
	case model.Open:
		if opts.IncludeAnswers {
			eq.Keywords = q.Keywords
		}
	case model.Matching:
		if opts.IncludeAnswers {
			eq.Pairs = q.Pairs
		} else {
			eq.Pairs = make([]model.MatchPair, len(q.Pairs))
			for i, p := range q.Pairs {
				eq.Pairs[i] = model.MatchPair{Item: p.Item}
			}
		}
	}
	return eq
}

const sheetName = "Examen"

func examSheet(e *model.Exam, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headers := []string{"#", "Tipo", "Pregunta", "Opciones"}
	if opts.IncludeAnswers {
		headers = append(headers, "Respuesta correcta")
	}
	if opts.IncludeExplanations {
		headers = append(headers, "Explicación")
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, q := range e.Questions {
		eq := exportQuestion(q, opts)
		row := []any{string(eq.ID), opts.TypeLabel(eq.Type), eq.Text, optionsCell(q)}
		if opts.IncludeAnswers {
			row = append(row, answerCell(eq))
		}
		if opts.IncludeExplanations {
			row = append(row, eq.Explanation)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write question %s: %w", eq.ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func optionsCell(q model.Question) string {
	switch q := q.(type) {
	case model.MultipleChoice:
		return strings.Join(q.Options, "\n")
	case model.Matching:
		items := make([]string, len(q.Pairs))
		for i, p := range q.Pairs {
			items[i] = p.Item
		}
		return strings.Join(items, "\n")
	}
	return ""
}

func answerCell(eq model.ExportQuestion) string {
	switch {
	case len(eq.Pairs) > 0:
		lines := make([]string, len(eq.Pairs))
		for i, p := range eq.Pairs {
			lines[i] = p.Item + " → " + p.Match
		}
		return strings.Join(lines, "\n")
	case len(eq.Keywords) > 0:
		return strings.Join(eq.Keywords, ", ")
	}
	return eq.CorrectAnswer
}
