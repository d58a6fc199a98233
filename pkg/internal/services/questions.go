package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eventhost/pulse/pkg/internal/database"
	"github.com/eventhost/pulse/pkg/internal/models"
	"gorm.io/gorm"
)

const (
	EventQuestionCreated = "questionCreated"
	EventAnswerCreated   = "answerCreated"
)

func AskQuestion(user models.Account, content string) (models.Question, error) {
	var question models.Question

	content = strings.TrimSpace(content)
	if len(content) == 0 {
		return question, fmt.Errorf("%w: question content cannot be empty", ErrValidation)
	}

	question = models.Question{
		Content:   content,
		AccountID: user.ID,
		Account:   user,
		Answers:   []models.Answer{},
	}

	if err := database.C.Create(&question).Error; err != nil {
		return question, err
	}

	broadcaster.ToAll(EventQuestionCreated, question)

	return question, nil
}

// AnswerQuestion appends an answer and rebroadcasts the whole question, so
// listeners can replace their local copy wholesale instead of patching in
// a delta they may have no base for.
func AnswerQuestion(user models.Account, questionId uint, content string) (models.Question, error) {
	var question models.Question

	if !user.IsOrganizer() {
		return question, fmt.Errorf("%w: only organizers can answer questions", ErrAuthorization)
	}
	content = strings.TrimSpace(content)
	if len(content) == 0 {
		return question, fmt.Errorf("%w: answer content cannot be empty", ErrValidation)
	}

	if err := database.C.Where("id = ?", questionId).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return question, fmt.Errorf("%w: question #%d", ErrNotFound, questionId)
		}
		return question, err
	}

	answer := models.Answer{
		Content:    content,
		QuestionID: question.ID,
		AccountID:  user.ID,
		Account:    user,
	}

	if err := database.C.Create(&answer).Error; err != nil {
		return question, err
	}

	if err := database.C.
		Preload("Account").
		Preload("Answers", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("answers.created_at ASC")
		}).
		Preload("Answers.Account").
		Where("id = ?", question.ID).
		First(&question).Error; err != nil {
		return question, err
	}

	broadcaster.ToAll(EventAnswerCreated, map[string]any{
		"question_id": question.ID,
		"question":    question,
	})

	return question, nil
}

func ListQuestions() ([]models.Question, error) {
	var questions []models.Question
	if err := database.C.
		Preload("Account").
		Preload("Answers", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("answers.created_at ASC")
		}).
		Preload("Answers.Account").
		Order("created_at DESC").
		Find(&questions).Error; err != nil {
		return questions, err
	}

	return questions, nil
}
