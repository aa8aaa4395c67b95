package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/pavelanni/examgen/internal/model"
)

//go:embed templates/*.txt
var templateFS embed.FS

// Action selects what the completion should produce.
type Action string

const (
	ActionGenerateExam     Action = "generateExam"
	ActionGenerateQuestion Action = "generateQuestion"
	// ActionSummary is also used for an empty or unrecognized action.
	ActionSummary Action = "summary"
)

const (
	// MaxQuestionCount bounds the requested exam size.
	MaxQuestionCount = 50
	// MaxContentRunes is the longest content embedded in a prompt.
	MaxContentRunes = 60000
)

var difficultyAliases = map[string]model.Difficulty{
	"":       model.DifficultyMedium,
	"bajo":   model.DifficultyLow,
	"low":    model.DifficultyLow,
	"medio":  model.DifficultyMedium,
	"medium": model.DifficultyMedium,
	"alto":   model.DifficultyHigh,
	"high":   model.DifficultyHigh,
}

// Request holds everything needed to build a prompt.
type Request struct {
	Action        Action
	Content       string
	Difficulty    string
	QuestionTypes []string
	QuestionCount int
	SpecificTopic string
}

// Prompt is a system instruction and user message pair.
type Prompt struct {
	System string
	User   string
}

type examParams struct {
	Content       string               `validate:"required"`
	Difficulty    model.Difficulty     `validate:"oneof=bajo medio alto"`
	QuestionTypes []model.QuestionType `validate:"min=1,dive,oneof=multiple truefalse open matching"`
	QuestionCount int                  `validate:"min=1,max=50"`
}

type examData struct {
	Preamble      string
	Content       string
	QuestionTypes []string
	QuestionCount int
}

type questionData struct {
	Content       string
	SpecificTopic string
}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
	validate  = validator.New()
)

var templateNames = []string{
	"difficulty_bajo", "difficulty_medio", "difficulty_alto",
	"exam_system", "exam_user",
	"question_system", "question_user",
	"summary_system", "summary_user",
}

var funcs = template.FuncMap{"join": strings.Join}

// Load parses the prompt templates from fsys. It runs once; later calls
// return the first result.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template, len(templateNames))
		for _, name := range templateNames {
			file := "templates/" + name + ".txt"
			content, err := fs.ReadFile(fsys, file)
			if err != nil {
				loadErr = fmt.Errorf("read prompt file %s: %w", file, err)
				return
			}
			tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", file, err)
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// ParseDifficulty normalizes a difficulty value. Empty means medium.
func ParseDifficulty(s string) (model.Difficulty, error) {
	d, ok := difficultyAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown difficulty %q", model.ErrInvalidParameters, s)
	}
	return d, nil
}

// Build constructs the prompt for req. It performs no I/O beyond reading the
// embedded templates on first use and returns model.ErrInvalidParameters for
// requests that must not reach the completion endpoint.
func Build(req Request) (Prompt, error) {
	if err := Load(templateFS); err != nil {
		return Prompt{}, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return Prompt{}, fmt.Errorf("%w: content is empty", model.ErrInvalidParameters)
	}
	content = truncateContent(content)

	switch req.Action {
	case ActionGenerateExam:
		return buildExam(req, content)
	case ActionGenerateQuestion:
		return render("question", questionData{
			Content:       content,
			SpecificTopic: strings.TrimSpace(req.SpecificTopic),
		})
	default:
		return render("summary", questionData{Content: content})
	}
}

func buildExam(req Request, content string) (Prompt, error) {
	difficulty, err := ParseDifficulty(req.Difficulty)
	if err != nil {
		return Prompt{}, err
	}

	types := make([]model.QuestionType, 0, len(req.QuestionTypes))
	for _, raw := range req.QuestionTypes {
		qt, ok := model.ParseQuestionType(raw)
		if !ok {
			qt = model.QuestionType(raw)
		}
		types = append(types, qt)
	}
	types = lo.Uniq(types)

	params := examParams{
		Content:       content,
		Difficulty:    difficulty,
		QuestionTypes: types,
		QuestionCount: req.QuestionCount,
	}
	if err := validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Prompt{}, fmt.Errorf("%w: %s failed %q", model.ErrInvalidParameters, verrs[0].Field(), verrs[0].Tag())
		}
		return Prompt{}, fmt.Errorf("%w: %v", model.ErrInvalidParameters, err)
	}

	var preamble bytes.Buffer
	if err := templates["difficulty_"+string(difficulty)].Execute(&preamble, nil); err != nil {
		return Prompt{}, fmt.Errorf("render difficulty preamble: %w", err)
	}

	return render("exam", examData{
		Preamble:      strings.TrimSpace(preamble.String()),
		Content:       content,
		QuestionTypes: lo.Map(types, func(t model.QuestionType, _ int) string { return string(t) }),
		QuestionCount: req.QuestionCount,
	})
}

func render(prefix string, data any) (Prompt, error) {
	var sys, user bytes.Buffer
	if err := templates[prefix+"_system"].Execute(&sys, data); err != nil {
		return Prompt{}, fmt.Errorf("render %s system prompt: %w", prefix, err)
	}
	if err := templates[prefix+"_user"].Execute(&user, data); err != nil {
		return Prompt{}, fmt.Errorf("render %s user prompt: %w", prefix, err)
	}
	return Prompt{
		System: strings.TrimSpace(sys.String()),
		User:   strings.TrimSpace(user.String()),
	}, nil
}

func truncateContent(content string) string {
	if utf8.RuneCountInString(content) <= MaxContentRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:MaxContentRunes]) + "\n\n[Contenido truncado por longitud]"
}
