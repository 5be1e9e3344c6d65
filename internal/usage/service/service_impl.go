package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/config"
	"github.com/ahlabot/ahlabot/internal/dates"
	entitlementdomain "github.com/ahlabot/ahlabot/internal/entitlement/domain"
	"github.com/ahlabot/ahlabot/internal/metrics"
	"github.com/ahlabot/ahlabot/internal/store"
	"github.com/ahlabot/ahlabot/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errQuotaDenied aborts the consume transaction without persisting
// anything. It never leaves this package.
var errQuotaDenied = errors.New("quota_denied")

type ServiceParam struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	Location       *time.Location
	Limits         *config.LimitsHolder
	EntitlementSvc entitlementdomain.Service
	Metrics        *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	loc      *time.Location
	limits   *config.LimitsHolder
	entitled entitlementdomain.Service
	metrics  *metrics.Metrics

	// fallback meters usage in process memory while the store is down.
	fallback *memoryLedger
}

func New(p ServiceParam) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("usage.service"),
		clock:    p.Clock,
		loc:      p.Location,
		limits:   p.Limits,
		entitled: p.EntitlementSvc,
		metrics:  p.Metrics,
		fallback: newMemoryLedger(),
	}
}

func (s *Service) TryConsume(ctx context.Context, userID int64, kind domain.Kind) (bool, string) {
	limits := s.limits.Get()

	if s.entitled.IsPremium(ctx, userID) {
		s.count(kind, "premium")
		return true, ""
	}

	var limit int
	switch kind {
	case domain.KindText:
		limit = limits.DailyTextMessages
	case domain.KindAudio:
		limit = limits.DailyAudioClips
	default:
		return false, "Неизвестный тип сообщения."
	}

	day := dates.Day(s.clock.Now(), s.loc)
	denial := ""

	err := s.transact(ctx, userID, day, func(rec *domain.UsageRecord) error {
		used := rec.TextMessages
		if kind == domain.KindAudio {
			used = rec.AudioMessages
		}
		if used >= limit {
			denial = countExhaustedReason(kind, limit)
			return errQuotaDenied
		}
		if kind == domain.KindAudio {
			rec.AudioMessages++
		} else {
			rec.TextMessages++
		}
		return nil
	})

	switch {
	case err == nil:
		s.count(kind, "allowed")
		return true, ""
	case errors.Is(err, errQuotaDenied):
		s.count(kind, "denied")
		return false, denial
	default:
		// Store is unreachable: degrade to the in-process ledger so the
		// quota resets on restart instead of failing open or closed.
		s.log.Warn("usage store unavailable, metering in memory", zap.Error(err))
		allowed := s.fallback.consumeCount(userID, day, kind, limit)
		if !allowed {
			s.count(kind, "denied")
			return false, countExhaustedReason(kind, limit)
		}
		s.count(kind, "allowed")
		return true, ""
	}
}

func (s *Service) TryConsumeVolume(ctx context.Context, userID int64, kind domain.Kind, amount int) (bool, string) {
	if amount < 0 {
		return false, "Неизвестный объём сообщения."
	}

	limits := s.limits.Get()
	premium := s.entitled.IsPremium(ctx, userID)

	perMessage, daily, unit := volumeLimits(limits, kind, premium)
	if perMessage == 0 {
		return false, "Неизвестный тип сообщения."
	}

	// Per-message ceiling applies before any daily accounting and never
	// mutates state.
	if amount > perMessage {
		s.count(kind, "denied")
		return false, tooLargeReason(kind, amount, perMessage, unit)
	}

	// Premium has no daily volume ceiling and is not metered.
	if premium {
		s.count(kind, "premium")
		return true, ""
	}

	day := dates.Day(s.clock.Now(), s.loc)
	denial := ""

	err := s.transact(ctx, userID, day, func(rec *domain.UsageRecord) error {
		used := rec.TextChars
		if kind == domain.KindAudio {
			used = rec.AudioSeconds
		}
		if used+amount > daily {
			denial = dailyVolumeReason(kind, daily-used, unit)
			return errQuotaDenied
		}
		if kind == domain.KindAudio {
			rec.AudioSeconds += amount
		} else {
			rec.TextChars += amount
		}
		return nil
	})

	switch {
	case err == nil:
		s.count(kind, "allowed")
		return true, ""
	case errors.Is(err, errQuotaDenied):
		s.count(kind, "denied")
		return false, denial
	default:
		s.log.Warn("usage store unavailable, metering in memory", zap.Error(err))
		allowed, remaining := s.fallback.consumeVolume(userID, day, kind, amount, daily)
		if !allowed {
			s.count(kind, "denied")
			return false, dailyVolumeReason(kind, remaining, unit)
		}
		s.count(kind, "allowed")
		return true, ""
	}
}

func (s *Service) TryConsumeMessage(ctx context.Context, userID int64, kind domain.Kind, amount int) (bool, string) {
	if amount < 0 {
		return false, "Неизвестный объём сообщения."
	}

	limits := s.limits.Get()
	premium := s.entitled.IsPremium(ctx, userID)

	perMessage, daily, unit := volumeLimits(limits, kind, premium)
	if perMessage == 0 {
		return false, "Неизвестный тип сообщения."
	}

	// The per-message ceiling rejects outright: an oversized message must
	// not burn a daily slot the user never got a translation for.
	if amount > perMessage {
		s.count(kind, "denied")
		return false, tooLargeReason(kind, amount, perMessage, unit)
	}

	if premium {
		s.count(kind, "premium")
		return true, ""
	}

	countLimit := limits.DailyTextMessages
	if kind == domain.KindAudio {
		countLimit = limits.DailyAudioClips
	}

	day := dates.Day(s.clock.Now(), s.loc)
	denial := ""

	err := s.transact(ctx, userID, day, func(rec *domain.UsageRecord) error {
		usedCount, usedVol := rec.TextMessages, rec.TextChars
		if kind == domain.KindAudio {
			usedCount, usedVol = rec.AudioMessages, rec.AudioSeconds
		}
		if usedCount >= countLimit {
			denial = countExhaustedReason(kind, countLimit)
			return errQuotaDenied
		}
		if usedVol+amount > daily {
			denial = dailyVolumeReason(kind, daily-usedVol, unit)
			return errQuotaDenied
		}
		if kind == domain.KindAudio {
			rec.AudioMessages++
			rec.AudioSeconds += amount
		} else {
			rec.TextMessages++
			rec.TextChars += amount
		}
		return nil
	})

	switch {
	case err == nil:
		s.count(kind, "allowed")
		return true, ""
	case errors.Is(err, errQuotaDenied):
		s.count(kind, "denied")
		return false, denial
	default:
		s.log.Warn("usage store unavailable, metering in memory", zap.Error(err))
		ok, countHit, remaining := s.fallback.consumeMessage(userID, day, kind, amount, countLimit, daily)
		if !ok {
			s.count(kind, "denied")
			if countHit {
				return false, countExhaustedReason(kind, countLimit)
			}
			return false, dailyVolumeReason(kind, remaining, unit)
		}
		s.count(kind, "allowed")
		return true, ""
	}
}

func (s *Service) Today(ctx context.Context, userID int64) (domain.UsageRecord, error) {
	day := dates.Day(s.clock.Now(), s.loc)
	var rec domain.UsageRecord
	err := s.db.WithContext(ctx).
		First(&rec, "user_id = ? AND day = ?", userID, day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UsageRecord{UserID: userID, Day: day}, nil
	}
	if err != nil {
		return domain.UsageRecord{}, err
	}
	return rec, nil
}

// transact runs mutate against the user's record for day inside one
// transaction with the row locked, creating a zeroed record when absent.
// Counters must never go through read-then-write in two steps: the
// scheduler, admin triggers and user actions can all race on them.
func (s *Service) transact(ctx context.Context, userID int64, day string, mutate func(*domain.UsageRecord) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec domain.UsageRecord
		err := store.LockForUpdate(tx).
			First(&rec, "user_id = ? AND day = ?", userID, day).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec = domain.UsageRecord{UserID: userID, Day: day}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := mutate(&rec); err != nil {
			return err
		}

		rec.UpdatedAt = s.clock.Now()
		return tx.Save(&rec).Error
	})
}

func (s *Service) count(kind domain.Kind, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.UsageDecisions.WithLabelValues(string(kind), outcome).Inc()
}

func volumeLimits(l config.Limits, kind domain.Kind, premium bool) (perMessage, daily int, unit string) {
	switch kind {
	case domain.KindText:
		perMessage = l.MaxMessageChars
		if premium {
			perMessage = l.MaxMessageCharsPremium
		}
		return perMessage, l.DailyChars, "символов"
	case domain.KindAudio:
		perMessage = l.MaxAudioSeconds
		if premium {
			perMessage = l.MaxAudioSecondsPremium
		}
		return perMessage, l.DailyAudioSeconds, "секунд"
	default:
		return 0, 0, ""
	}
}

func countExhaustedReason(kind domain.Kind, limit int) string {
	what := "текстовых сообщений"
	if kind == domain.KindAudio {
		what = "голосовых сообщений"
	}
	return fmt.Sprintf(
		"Дневной лимит %s исчерпан (%d в день). Попробуй завтра или оформи премиум: /premium.",
		what, limit,
	)
}

func tooLargeReason(kind domain.Kind, amount, limit int, unit string) string {
	if kind == domain.KindAudio {
		return fmt.Sprintf(
			"Голосовое слишком длинное: %d %s при лимите %d. Запиши покороче.",
			amount, unit, limit,
		)
	}
	return fmt.Sprintf(
		"Сообщение слишком длинное: %d %s при лимите %d. Сократи текст и отправь снова.",
		amount, unit, limit,
	)
}

func dailyVolumeReason(kind domain.Kind, remaining int, unit string) string {
	if remaining < 0 {
		remaining = 0
	}
	what := "перевода текста"
	if kind == domain.KindAudio {
		what = "расшифровки аудио"
	}
	return fmt.Sprintf(
		"Дневной объём %s почти исчерпан: осталось %d %s. Продолжить можно завтра или с премиумом: /premium.",
		what, remaining, unit,
	)
}
