package service

import (
	"context"
	"errors"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func New(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		clock: p.Clock,
	}
}

func (s *Service) Ensure(ctx context.Context, userID int64) (domain.Preferences, error) {
	if userID == 0 {
		return domain.Preferences{}, domain.ErrInvalidUser
	}

	prefs := domain.Preferences{
		UserID:      userID,
		DailyPhrase: true,
		DailyFact:   true,
		WeeklyQuiz:  true,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&prefs).Error
	if err != nil {
		return domain.Preferences{}, err
	}

	err = s.db.WithContext(ctx).First(&prefs, "user_id = ?", userID).Error
	return prefs, err
}

func (s *Service) Toggle(ctx context.Context, userID int64, kind domain.Kind) (bool, error) {
	column, err := flagColumn(kind)
	if err != nil {
		return false, err
	}

	prefs, err := s.Ensure(ctx, userID)
	if err != nil {
		return false, err
	}

	next := !flagValue(prefs, kind)
	err = s.db.WithContext(ctx).
		Model(&domain.Preferences{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{column: next, "updated_at": s.clock.Now()}).Error
	if err != nil {
		return false, err
	}
	return next, nil
}

func (s *Service) Recipients(ctx context.Context, kind domain.Kind) ([]int64, error) {
	column, err := flagColumn(kind)
	if err != nil {
		return nil, err
	}

	var ids []int64
	err = s.db.WithContext(ctx).
		Model(&domain.Preferences{}).
		Where(column+" = ?", true).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *Service) LastDelivery(ctx context.Context, userID int64, kind domain.Kind) (string, error) {
	var prefs domain.Preferences
	err := s.db.WithContext(ctx).First(&prefs, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	switch kind {
	case domain.KindPhrase:
		return prefs.LastPhraseOn, nil
	case domain.KindFact:
		return prefs.LastFactOn, nil
	case domain.KindQuiz:
		return prefs.LastQuizOn, nil
	default:
		return "", domain.ErrInvalidKind
	}
}

func (s *Service) MarkDelivered(ctx context.Context, userID int64, kind domain.Kind, day string) error {
	var column string
	switch kind {
	case domain.KindPhrase:
		column = "last_phrase_on"
	case domain.KindFact:
		column = "last_fact_on"
	case domain.KindQuiz:
		column = "last_quiz_on"
	default:
		return domain.ErrInvalidKind
	}

	return s.db.WithContext(ctx).
		Model(&domain.Preferences{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{column: day, "updated_at": s.clock.Now()}).Error
}

func flagColumn(kind domain.Kind) (string, error) {
	switch kind {
	case domain.KindPhrase:
		return "daily_phrase", nil
	case domain.KindFact:
		return "daily_fact", nil
	case domain.KindQuiz:
		return "weekly_quiz", nil
	default:
		return "", domain.ErrInvalidKind
	}
}

func flagValue(p domain.Preferences, kind domain.Kind) bool {
	switch kind {
	case domain.KindFact:
		return p.DailyFact
	case domain.KindQuiz:
		return p.WeeklyQuiz
	default:
		return p.DailyPhrase
	}
}
