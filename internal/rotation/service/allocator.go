package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/rotation/domain"
	"github.com/ahlabot/ahlabot/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AllocatorParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Allocator struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func New(p AllocatorParam) domain.Allocator {
	return &Allocator{
		db:    p.DB,
		log:   p.Log.Named("rotation.allocator"),
		clock: p.Clock,
	}
}

// NextIndex must fail loudly on storage errors: silently skipping the
// persisted advance would corrupt the no-repeat round-robin invariant.
func (a *Allocator) NextIndex(ctx context.Context, namespace string, listLength int) (int, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return 0, domain.ErrInvalidNamespace
	}
	if listLength <= 0 {
		return 0, domain.ErrEmptyList
	}

	var next int
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cursor domain.Cursor
		err := store.LockForUpdate(tx).
			First(&cursor, "namespace = ?", namespace).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cursor = domain.Cursor{Namespace: namespace, LastIndex: -1}
			if err := tx.Create(&cursor).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		next = (cursor.LastIndex + 1) % listLength
		cursor.LastIndex = next
		cursor.UpdatedAt = a.clock.Now()
		return tx.Save(&cursor).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
