package exam

import (
	"fmt"

	"github.com/pavelanni/examgen/internal/model"
)

// QuestionView is one question as shown to the student. Correct answers and
// explanations are only filled in after submission.
type QuestionView struct {
	ID            model.QuestionID   `json:"id"`
	Type          model.QuestionType `json:"type"`
	Text          string             `json:"text"`
	Options       []string           `json:"options,omitempty"`
	Items         []string           `json:"items,omitempty"`
	MatchOptions  []string           `json:"match_options,omitempty"`
	Answer        model.Answer       `json:"answer,omitempty"`
	Verdict       model.Verdict      `json:"verdict,omitempty"`
	CorrectAnswer any                `json:"correct_answer,omitempty"`
	Explanation   string             `json:"explanation,omitempty"`
}

// View is a snapshot of the runtime for rendering.
type View struct {
	Title     string         `json:"title"`
	State     State          `json:"state"`
	Progress  Progress       `json:"progress,omitempty"`
	Answered  int            `json:"answered"`
	Busy      bool           `json:"busy"`
	CanSubmit bool           `json:"can_submit"`
	Questions []QuestionView `json:"questions"`
	Result    *model.Result  `json:"result,omitempty"`
}

// View returns a snapshot of the loaded exam with the student's answers.
func (r *Runtime) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{
		State:     r.state,
		Progress:  r.progress(),
		Answered:  len(r.answers),
		Busy:      r.busy,
		Questions: []QuestionView{},
	}
	if r.exam == nil {
		return v
	}
	v.Title = r.exam.Title
	v.CanSubmit = r.state == StateReady && len(r.exam.Questions) > 0

	verdicts := map[model.QuestionID]model.Verdict{}
	if r.result != nil {
		res := *r.result
		v.Result = &res
		for _, qr := range res.Questions {
			verdicts[qr.ID] = qr.Verdict
		}
	}
	submitted := r.state == StateSubmitted

	for _, q := range r.exam.Questions {
		h := q.Header()
		qv := QuestionView{
			ID:     h.ID,
			Type:   q.Kind(),
			Text:   h.Text,
			Answer: r.answers[h.ID],
		}
		switch q := q.(type) {
		case model.MultipleChoice:
			qv.Options = q.Options
			if submitted {
				qv.CorrectAnswer = q.CorrectAnswer
			}
		case model.TrueFalse:
			if submitted {
				qv.CorrectAnswer = q.CorrectAnswer
			}
		case model.Open:
			if submitted && len(q.Keywords) > 0 {
				qv.CorrectAnswer = q.Keywords
			}
		case model.Matching:
			qv.Items = make([]string, len(q.Pairs))
			correct := make(map[int]string, len(q.Pairs))
			for i, p := range q.Pairs {
				qv.Items[i] = p.Item
				correct[i] = p.Match
			}
			qv.MatchOptions = r.shuffled[h.ID]
			if submitted {
				qv.CorrectAnswer = correct
			}
		default:
			panic(fmt.Sprintf("unhandled question type %T", q))
		}
		if submitted {
			qv.Verdict = verdicts[h.ID]
			qv.Explanation = h.Explanation
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}
