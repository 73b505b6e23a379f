package services

import (
	"testing"

	"learnify/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strp(s string) *string { return &s }

var sampleQuiz = []models.QuizQuestion{
	{Question: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4"},
	{Question: "Capital of France?", Options: []string{"Paris", "Rome", "Berlin", "Madrid"}, CorrectAnswer: "Paris"},
	{Question: "Go keyword for goroutine?", Options: []string{"go", "async", "spawn", "run"}, CorrectAnswer: "go"},
}

func TestScoreQuiz(t *testing.T) {
	tests := []struct {
		name    string
		answers []*string
		want    int
	}{
		{"all correct", []*string{strp("4"), strp("Paris"), strp("go")}, 3},
		{"one wrong", []*string{strp("4"), strp("Rome"), strp("go")}, 2},
		{"missing answers", []*string{strp("4")}, 1},
		{"null answer", []*string{nil, strp("Paris"), nil}, 1},
		{"extra answers ignored", []*string{strp("4"), strp("Paris"), strp("go"), strp("x")}, 3},
		{"none", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreQuiz(sampleQuiz, tt.answers)
			assert.Equal(t, tt.want, res.Score)
			assert.Equal(t, 3, res.Total)
			assert.Len(t, res.Results, 3)
		})
	}
}

func TestValidateQuiz(t *testing.T) {
	assert.Nil(t, ValidateQuiz(sampleQuiz))
	assert.Contains(t, ValidateQuiz(nil), "questions")

	bad := []models.QuizQuestion{{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "e"}}
	assert.Contains(t, ValidateQuiz(bad), "questions[0].correct_answer")
}

func TestLearnerQuizHidesAnswers(t *testing.T) {
	lq := LearnerQuiz(sampleQuiz)
	require.Len(t, lq, 3)
	assert.Equal(t, "2+2?", lq[0].Question)
	assert.Len(t, lq[0].Options, 4)
}

func TestSubmitQuizOverwrites(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db, "q@example.com")
	c := seedCourse(t, db, models.Course{Name: "Quiz", Quiz: datatypes.JSONSlice[models.QuizQuestion](sampleQuiz)})
	empty := seedCourse(t, db, models.Course{Name: "No quiz"})

	_, err := SubmitQuiz(db, u.ID, &c, nil)
	assert.ErrorIs(t, err, ErrNotEnrolled)
	_, err = SubmitQuiz(db, u.ID, &empty, nil)
	assert.ErrorIs(t, err, ErrEmptyQuiz)

	require.NoError(t, Enroll(db, u.ID, c.ID))
	res, err := SubmitQuiz(db, u.ID, &c, []*string{strp("4")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)

	res, err = SubmitQuiz(db, u.ID, &c, []*string{strp("4"), strp("Paris"), nil, strp("extra")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Score)

	subs, err := Submissions(db, u.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 2, subs[0].Score)
	require.Len(t, subs[0].Answers, 3)
	assert.Equal(t, "Paris", *subs[0].Answers[1])
	assert.Nil(t, subs[0].Answers[2])
}
