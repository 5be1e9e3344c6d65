package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/content"
	"github.com/ahlabot/ahlabot/internal/metrics"
	"github.com/ahlabot/ahlabot/internal/quiz/domain"
	"github.com/ahlabot/ahlabot/internal/store"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// distractorCount is k: options are the correct answer plus up to k wrong ones.
const distractorCount = 3

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	GenID   *snowflake.Node
	Catalog *content.Catalog
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	catalog *content.Catalog
	metrics *metrics.Metrics
}

func New(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("quiz.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		catalog: p.Catalog,
		metrics: p.Metrics,
	}
}

func (s *Service) NewQuestion(ctx context.Context, userID int64) (domain.Question, error) {
	pool := usableRecords(s.catalog.Phrases)
	if len(pool) < distractorCount+1 {
		return domain.Question{}, domain.ErrNotEnoughContent
	}

	item := pool[rand.Intn(len(pool))]
	options, correctIdx := buildOptions(item, pool)

	question := domain.Question{
		UserID:       userID,
		QuestionID:   s.genID.Generate().Int64(),
		Prompt:       item.He,
		Answer:       item.Ru,
		Options:      datatypes.NewJSONSlice(options),
		CorrectIndex: correctIdx,
		Done:         false,
		CreatedAt:    s.clock.Now(),
	}

	// The slot always takes the new question, even over an unanswered one.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&question).Error
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

func (s *Service) Answer(ctx context.Context, userID, questionID int64, optionIndex int) (domain.AnswerResult, error) {
	var result domain.AnswerResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question domain.Question
		err := store.LockForUpdate(tx).
			First(&question, "user_id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNoQuestion
		}
		if err != nil {
			return err
		}

		if question.QuestionID != questionID {
			// Click on a button from a replaced question. Scoring it
			// against the current slot would answer a question the user
			// never saw.
			return domain.ErrStaleQuestion
		}
		if question.Done {
			// Repeated clicks on an answered question must not double
			// count; surface the stored answer without touching stats.
			result.CorrectAnswer = question.Answer
			result.CorrectIndex = question.CorrectIndex
			return domain.ErrAlreadyAnswered
		}
		if optionIndex < 0 || optionIndex >= len(question.Options) {
			return domain.ErrInvalidOption
		}

		correct := optionIndex == question.CorrectIndex

		if err := tx.Model(&domain.Question{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"done": true}).Error; err != nil {
			return err
		}

		stats, err := s.bumpStats(tx, userID, correct)
		if err != nil {
			return err
		}

		result = domain.AnswerResult{
			Correct:       correct,
			CorrectAnswer: question.Answer,
			CorrectIndex:  question.CorrectIndex,
			Stats:         stats,
		}
		return nil
	})

	switch {
	case err == nil:
		s.observe(result.Correct)
		return result, nil
	case errors.Is(err, domain.ErrAlreadyAnswered):
		if s.metrics != nil {
			s.metrics.QuizAnswers.WithLabelValues("duplicate").Inc()
		}
		return result, err
	default:
		return domain.AnswerResult{}, err
	}
}

func (s *Service) Stats(ctx context.Context, userID int64) (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.WithContext(ctx).First(&stats, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Stats{UserID: userID}, nil
	}
	if err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (s *Service) ResetStats(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).
		Delete(&domain.Stats{}, "user_id = ?", userID).Error
}

func (s *Service) bumpStats(tx *gorm.DB, userID int64, correct bool) (domain.Stats, error) {
	var stats domain.Stats
	err := store.LockForUpdate(tx).
		First(&stats, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = domain.Stats{UserID: userID}
		if err := tx.Create(&stats).Error; err != nil {
			return domain.Stats{}, err
		}
	} else if err != nil {
		return domain.Stats{}, err
	}

	stats.Answered++
	if correct {
		stats.Correct++
	}
	stats.UpdatedAt = s.clock.Now()
	if err := tx.Save(&stats).Error; err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func (s *Service) observe(correct bool) {
	if s.metrics == nil {
		return
	}
	outcome := "wrong"
	if correct {
		outcome = "correct"
	}
	s.metrics.QuizAnswers.WithLabelValues(outcome).Inc()
}

// usableRecords keeps items that can serve as both prompts and answers.
func usableRecords(records []content.Record) []content.Record {
	out := make([]content.Record, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.He) == "" || strings.TrimSpace(r.Ru) == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

// buildOptions samples up to distractorCount distinct wrong answers from
// the rest of the pool, shuffles them in with the correct one, and
// returns the shuffled list plus the correct option's index.
func buildOptions(item content.Record, pool []content.Record) ([]string, int) {
	seen := map[string]struct{}{item.Ru: {}}
	var distractors []string

	for _, idx := range rand.Perm(len(pool)) {
		if len(distractors) == distractorCount {
			break
		}
		candidate := pool[idx].Ru
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		distractors = append(distractors, candidate)
	}

	options := append([]string{item.Ru}, distractors...)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIdx := 0
	for i, opt := range options {
		if opt == item.Ru {
			correctIdx = i
			break
		}
	}
	return options, correctIdx
}
