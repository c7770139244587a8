package questionbank

import (
	"strings"
)

// Result is the outcome of scoring a full answers map.
type Result struct {
	Score       int              `json:"score"`
	TotalPoints int              `json:"total_points"`
	Details     []QuestionResult `json:"details"`
}

// QuestionResult is the per-question scoring detail.
type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
}

// Score grades a full answers map against the bank. Pure and deterministic:
// the same input always yields the same result. Unanswered questions score
// zero; keys not present in the bank are ignored.
func Score(answers map[string]string) Result {
	res := Result{
		TotalPoints: TotalPoints,
		Details:     make([]QuestionResult, 0, len(ExamQuestions)),
	}

	for i := range ExamQuestions {
		q := &ExamQuestions[i]
		correct := CheckAnswer(q, answers[q.ID])

		earned := 0
		if correct {
			earned = q.Points
			res.Score += q.Points
		}
		res.Details = append(res.Details, QuestionResult{
			QuestionID: q.ID,
			Correct:    correct,
			Points:     earned,
		})
	}

	return res
}

// CheckAnswer matches a single answer according to the question type:
//   - multiple choice: exact match, case-insensitive, trimmed
//   - identification: normalized substring containment in either direction
//   - code analysis: exact match with all whitespace stripped
func CheckAnswer(q *Question, answer string) bool {
	got := strings.ToLower(strings.TrimSpace(answer))
	want := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
	if got == "" {
		return false
	}

	switch q.Type {
	case TypeIdentification:
		ng := normalizeFreeText(got)
		nw := normalizeFreeText(want)
		return ng == nw || strings.Contains(nw, ng) || strings.Contains(ng, nw)
	case TypeCodeAnalysis:
		return stripWhitespace(got) == stripWhitespace(want)
	default:
		return got == want
	}
}

// normalizeFreeText removes common punctuation and collapses runs of
// whitespace to a single space.
func normalizeFreeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '.', ',', ';', ':', '!', '?':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
