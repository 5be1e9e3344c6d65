package domain

import (
	"context"
	"errors"
)

// AnswerResult reveals the outcome of one answer. The correct answer is
// always included, right or wrong.
type AnswerResult struct {
	Correct       bool
	CorrectAnswer string
	CorrectIndex  int
	Stats         Stats
}

type Service interface {
	// NewQuestion generates a fresh multiple-choice question and stores
	// it as the user's current slot, replacing any prior question.
	NewQuestion(ctx context.Context, userID int64) (Question, error)

	// Answer resolves the current question with the chosen option index,
	// updating stats exactly once per question instance. questionID must
	// match the stored slot: clicks on a replaced question are rejected,
	// never scored against the question that took its place.
	Answer(ctx context.Context, userID, questionID int64, optionIndex int) (AnswerResult, error)

	Stats(ctx context.Context, userID int64) (Stats, error)
	ResetStats(ctx context.Context, userID int64) error
}

var (
	ErrNoQuestion       = errors.New("no_active_question")
	ErrStaleQuestion    = errors.New("question_replaced")
	ErrAlreadyAnswered  = errors.New("question_already_answered")
	ErrInvalidOption    = errors.New("invalid_option_index")
	ErrNotEnoughContent = errors.New("not_enough_quiz_content")
)
