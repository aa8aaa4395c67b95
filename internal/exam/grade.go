package exam

import (
	"math"

	"github.com/pavelanni/examgen/internal/model"
)

// Grade scores answers against exam. It is pure: the same inputs always give
// the same Result. Answers for ids absent from the exam are ignored.
func Grade(exam *model.Exam, answers model.Answers) model.Result {
	res := model.Result{
		Questions:     make([]model.QuestionResult, 0, len(exam.Questions)),
		PendingReview: []model.QuestionID{},
	}

	for _, q := range exam.Questions {
		h := q.Header()
		ans, answered := answers[h.ID]
		qr := model.QuestionResult{
			ID:          h.ID,
			Type:        q.Kind(),
			Answered:    answered,
			Explanation: h.Explanation,
		}

		if q.Kind() == model.TypeOpen {
			qr.Verdict = model.VerdictManualReview
			res.PendingReview = append(res.PendingReview, h.ID)
			res.Questions = append(res.Questions, qr)
			continue
		}

		res.Total++
		if IsCorrect(q, ans) {
			qr.Verdict = model.VerdictCorrect
			res.Correct++
		} else {
			qr.Verdict = model.VerdictIncorrect
		}
		res.Questions = append(res.Questions, qr)
	}

	if res.Total > 0 {
		res.Percent = math.Round(float64(res.Correct)/float64(res.Total)*10000) / 100
	}
	return res
}

// IsCorrect reports whether ans is the correct answer to q. A nil answer is
// incorrect, except for a matching question with no pairs. Open questions are
// never correct.
func IsCorrect(q model.Question, ans model.Answer) bool {
	switch q := q.(type) {
	case model.MultipleChoice:
		c, ok := ans.(model.Choice)
		return ok && int(c) == q.CorrectAnswer
	case model.TrueFalse:
		b, ok := ans.(model.Bool)
		return ok && bool(b) == q.CorrectAnswer
	case model.Open:
		return false
	case model.Matching:
		m, _ := ans.(model.Matches)
		for i, p := range q.Pairs {
			if v, ok := m[i]; !ok || v != p.Match {
				return false
			}
		}
		return true
	default:
		panic("unhandled question type")
	}
}
