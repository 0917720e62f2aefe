// Package scoring grades quiz submissions and folds the results into the
// enrollment's running score totals.
package scoring

import (
	"time"

	"lms/ledger"
	courseModels "lms/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Result of grading one submission. MaxScore is always the question count
// at grading time.
type Result struct {
	Score    int `json:"score"`
	MaxScore int `json:"max_score"`
}

// Grade scores submitted answers against the quiz's answer key: one point
// per position where the submitted index matches. A short answer slice
// counts the missing tail as wrong; extra answers are ignored. Never errors
// on a length mismatch.
func Grade(questions []courseModels.QuizQuestion, answers []int) Result {
	result := Result{MaxScore: len(questions)}
	for i := range questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == questions[i].CorrectIndex {
			result.Score++
		}
	}
	return result
}

// Engine records graded attempts. Each call appends one immutable
// QuizAttempt row and additively bumps the owning enrollment's
// accumulators via the ledger.
type Engine struct {
	db     *gorm.DB
	ledger *ledger.Ledger
}

func NewEngine(db *gorm.DB, l *ledger.Ledger) *Engine {
	return &Engine{db: db, ledger: l}
}

// SubmitAttempt grades answers, logs the attempt, and accumulates the
// score onto the enrollment
func (e *Engine) SubmitAttempt(userID uint, quiz *courseModels.Quiz, enrollmentID uint, answers []int) (Result, error) {
	result := Grade(quiz.Questions, answers)

	attempt := courseModels.QuizAttempt{
		UserID:      userID,
		QuizID:      quiz.ID,
		Answers:     datatypes.NewJSONSlice(answers),
		Score:       result.Score,
		MaxScore:    result.MaxScore,
		SubmittedAt: time.Now(),
	}
	if err := e.db.Create(&attempt).Error; err != nil {
		return result, err
	}

	if err := e.ledger.AccumulateScore(enrollmentID, result.Score, result.MaxScore); err != nil {
		return result, err
	}
	return result, nil
}
