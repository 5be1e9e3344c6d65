package service

import (
	"context"
	"errors"
	"time"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/dates"
	"github.com/ahlabot/ahlabot/internal/entitlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Location *time.Location
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	loc   *time.Location
}

func New(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("entitlement.service"),
		clock: p.Clock,
		loc:   p.Location,
	}
}

func (s *Service) IsPremium(ctx context.Context, userID int64) bool {
	if userID == 0 {
		return false
	}

	var ent domain.Entitlement
	err := s.db.WithContext(ctx).First(&ent, "user_id = ?", userID).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			// Fail closed: an unreachable store must never read as premium.
			s.log.Warn("entitlement lookup failed, treating as free tier",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		return false
	}

	if !ent.Active {
		return false
	}
	if ent.ExpiresOn == "" {
		return true
	}

	// Valid through and including the expiry day. Day keys share one
	// layout, so string comparison is date comparison.
	today := dates.Day(s.clock.Now(), s.loc)
	return today <= ent.ExpiresOn
}

func (s *Service) Grant(ctx context.Context, userID int64, expiresOn string) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	if expiresOn != "" {
		if _, err := dates.ParseDay(expiresOn, s.loc); err != nil {
			return domain.ErrInvalidDate
		}
	}

	now := s.clock.Now()
	ent := domain.Entitlement{
		UserID:    userID,
		Active:    true,
		ExpiresOn: expiresOn,
		GrantedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"active", "expires_on", "updated_at"}),
	}).Create(&ent).Error
	if err != nil {
		return err
	}

	s.log.Info("entitlement granted",
		zap.Int64("user_id", userID),
		zap.String("expires_on", expiresOn),
	)
	return nil
}

func (s *Service) Revoke(ctx context.Context, userID int64) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	return s.db.WithContext(ctx).
		Model(&domain.Entitlement{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"active": false, "updated_at": s.clock.Now()}).Error
}

func (s *Service) Get(ctx context.Context, userID int64) (*domain.Entitlement, error) {
	var ent domain.Entitlement
	err := s.db.WithContext(ctx).First(&ent, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ent, nil
}
