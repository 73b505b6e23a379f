package services

import (
	"fmt"

	"learnify/backend/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionResult struct {
	Question      string  `json:"question"`
	Selected      *string `json:"selected"`
	CorrectAnswer string  `json:"correct_answer"`
	IsCorrect     bool    `json:"is_correct"`
}

type QuizResult struct {
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Results []QuestionResult `json:"results"`
}

// LearnerQuestion is a quiz question without its answer.
type LearnerQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// ValidateQuiz checks that every correct answer is one of its options.
// Field presence and option count are left to struct validation.
func ValidateQuiz(questions []models.QuizQuestion) map[string]string {
	errs := map[string]string{}
	if len(questions) == 0 {
		errs["questions"] = "at least one question is required"
	}
	for i, q := range questions {
		found := false
		for _, o := range q.Options {
			if o == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			errs[fmt.Sprintf("questions[%d].correct_answer", i)] = "correct_answer must be one of the options"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func LearnerQuiz(quiz []models.QuizQuestion) []LearnerQuestion {
	out := make([]LearnerQuestion, 0, len(quiz))
	for _, q := range quiz {
		out = append(out, LearnerQuestion{Question: q.Question, Options: q.Options})
	}
	return out
}

// ScoreQuiz compares answers to the quiz by position. Missing or null
// answers are wrong; answers beyond the quiz length are ignored.
func ScoreQuiz(quiz []models.QuizQuestion, answers []*string) QuizResult {
	res := QuizResult{Total: len(quiz), Results: make([]QuestionResult, 0, len(quiz))}
	for i, q := range quiz {
		var selected *string
		if i < len(answers) {
			selected = answers[i]
		}
		ok := selected != nil && *selected == q.CorrectAnswer
		if ok {
			res.Score++
		}
		res.Results = append(res.Results, QuestionResult{
			Question:      q.Question,
			Selected:      selected,
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     ok,
		})
	}
	return res
}

// SubmitQuiz scores the answers and stores them, replacing any earlier
// submission for the same course.
func SubmitQuiz(db *gorm.DB, userID uint, course *models.Course, answers []*string) (QuizResult, error) {
	if len(course.Quiz) == 0 {
		return QuizResult{}, ErrEmptyQuiz
	}
	ok, err := IsEnrolled(db, userID, course.ID)
	if err != nil {
		return QuizResult{}, err
	}
	if !ok {
		return QuizResult{}, ErrNotEnrolled
	}

	res := ScoreQuiz(course.Quiz, answers)
	stored := answers
	if len(stored) > len(course.Quiz) {
		stored = stored[:len(course.Quiz)]
	}
	sub := models.QuizSubmission{
		UserID:   userID,
		CourseID: course.ID,
		Answers:  datatypes.JSONSlice[*string](stored),
		Score:    res.Score,
		Total:    res.Total,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answers", "score", "total", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return QuizResult{}, fmt.Errorf("store submission: %w", err)
	}
	return res, nil
}

func Submissions(db *gorm.DB, userID uint) ([]models.QuizSubmission, error) {
	var subs []models.QuizSubmission
	if err := db.Where("user_id = ?", userID).Order("course_id").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	return subs, nil
}
