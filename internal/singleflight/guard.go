package singleflight

import (
	"context"
	"strings"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ahlabot/ahlabot/internal/config"
)

const (
	instanceKey     = "ahlabot:instance"
	leaseTTL        = 30 * time.Second
	refreshInterval = 10 * time.Second
	acquireWait     = 5 * time.Second
)

// Guard holds the single-instance lease. When redis is not configured the
// guard is a no-op and the process runs unguarded.
type Guard struct {
	log    *zap.Logger
	locker *Locker

	mu    sync.Mutex
	token string
	stop  context.CancelFunc
	done  chan struct{}
}

func NewGuard(cfg config.Config, log *zap.Logger) *Guard {
	g := &Guard{log: log.Named("singleflight")}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		g.log.Warn("redis not configured, running without instance lock")
		return g
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})
	g.locker = NewLocker(client)
	return g
}

// Acquire blocks until the instance lease is held or ctx expires. Another
// live instance holding the lease keeps us waiting; a crashed one times
// out within leaseTTL.
func (g *Guard) Acquire(ctx context.Context) error {
	if g.locker == nil {
		return nil
	}

	for {
		token, ok, err := g.locker.TryLock(ctx, instanceKey, leaseTTL)
		if err != nil {
			return err
		}
		if ok {
			g.mu.Lock()
			g.token = token
			g.mu.Unlock()
			g.startRefresher()
			g.log.Info("instance lock acquired")
			return nil
		}

		g.log.Info("another instance holds the lock, waiting", zap.Duration("wait", acquireWait))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(acquireWait):
		}
	}
}

func (g *Guard) startRefresher() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	g.mu.Lock()
	g.stop = cancel
	g.done = done
	token := g.token
	g.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				held, err := g.locker.Refresh(ctx, instanceKey, token, leaseTTL)
				if err != nil {
					g.log.Warn("instance lock refresh failed", zap.Error(err))
					continue
				}
				if !held {
					g.log.Error("instance lock lost to another instance")
					return
				}
			}
		}
	}()
}

// Release gives the lease back and stops the refresher.
func (g *Guard) Release(ctx context.Context) error {
	if g.locker == nil {
		return nil
	}

	g.mu.Lock()
	stop, done, token := g.stop, g.done, g.token
	g.token = ""
	g.mu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	if token == "" {
		return nil
	}
	return g.locker.Release(ctx, instanceKey, token)
}
