package questionbank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreDeterministic(t *testing.T) {
	answers := map[string]string{
		"mc_1": ExamQuestions[0].CorrectAnswer,
		"id_1": "Dennis Ritchie",
	}

	first := Score(answers)
	second := Score(answers)
	assert.Equal(t, first, second)
	assert.Equal(t, TotalPoints, first.TotalPoints)
}

func TestScoreEmptyAnswers(t *testing.T) {
	res := Score(map[string]string{})
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, TotalPoints, res.TotalPoints)
	assert.Len(t, res.Details, len(ExamQuestions))
}

func TestScoreIgnoresUnknownKeys(t *testing.T) {
	res := Score(map[string]string{"bogus_question": "whatever"})
	assert.Equal(t, 0, res.Score)
}

func TestScorePerfect(t *testing.T) {
	answers := make(map[string]string, len(ExamQuestions))
	for i := range ExamQuestions {
		answers[ExamQuestions[i].ID] = ExamQuestions[i].CorrectAnswer
	}
	res := Score(answers)
	assert.Equal(t, TotalPoints, res.Score)
}

func TestCheckAnswerMultipleChoice(t *testing.T) {
	q := ByID("mc_1")
	require.NotNil(t, q)

	assert.True(t, CheckAnswer(q, q.CorrectAnswer))
	assert.True(t, CheckAnswer(q, "  "+q.CorrectAnswer+"  "), "trims whitespace")

	// Case-insensitive.
	upper := []byte(q.CorrectAnswer)
	for i, c := range upper {
		if c >= 'a' && c <= 'z' {
			upper[i] = c - 32
		}
	}
	assert.True(t, CheckAnswer(q, string(upper)))

	assert.False(t, CheckAnswer(q, ""), "empty answer never matches")
	assert.False(t, CheckAnswer(q, "definitely wrong"))
}

func TestCheckAnswerIdentification(t *testing.T) {
	q := ByID("id_1") // correct answer: Dennis Ritchie
	require.NotNil(t, q)

	assert.True(t, CheckAnswer(q, "dennis ritchie"))
	assert.True(t, CheckAnswer(q, "Dennis Ritchie."), "punctuation stripped")
	assert.True(t, CheckAnswer(q, "dennis   ritchie"), "whitespace collapsed")
	assert.True(t, CheckAnswer(q, "ritchie"), "partial contained in the key")
	assert.False(t, CheckAnswer(q, ""), "empty never matches despite containment")
	assert.False(t, CheckAnswer(q, "ken thompson"))
}

func TestCheckAnswerCodeAnalysis(t *testing.T) {
	q := ByID("ca_1") // correct answer: Q=3 R=2
	require.NotNil(t, q)

	assert.True(t, CheckAnswer(q, "Q=3 R=2"))
	assert.True(t, CheckAnswer(q, "q = 3 r = 2"), "whitespace ignored")
	assert.True(t, CheckAnswer(q, "Q=3R=2"))
	assert.False(t, CheckAnswer(q, "Q=2 R=3"))
}

func TestPaperOmitsCorrectAnswers(t *testing.T) {
	paper := Paper()
	require.Len(t, paper, len(ExamQuestions))
	for _, q := range paper {
		assert.Empty(t, q.CorrectAnswer, "paper must not leak the answer key for %s", q.ID)
	}
}

func TestTotalPointsMatchesBank(t *testing.T) {
	sum := 0
	for i := range ExamQuestions {
		sum += ExamQuestions[i].Points
	}
	assert.Equal(t, sum, TotalPoints)
}
