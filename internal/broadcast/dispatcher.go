// Package broadcast fans scheduled content out to subscribers. Fan-out is
// best-effort: one failing recipient never blocks the rest, and a per-user
// "already sent today" marker keeps reruns idempotent within a day.
package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/content"
	"github.com/ahlabot/ahlabot/internal/dates"
	"github.com/ahlabot/ahlabot/internal/delivery"
	"github.com/ahlabot/ahlabot/internal/metrics"
	rotationdomain "github.com/ahlabot/ahlabot/internal/rotation/domain"
	subscriptiondomain "github.com/ahlabot/ahlabot/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	phraseNamespace       = "phrases"
	factCategoryNamespace = "fact-categories"
)

type DispatcherParam struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Location  *time.Location
	Catalog   *content.Catalog
	Allocator rotationdomain.Allocator
	Subs      subscriptiondomain.Service
	Deliverer delivery.Deliverer
	Metrics   *metrics.Metrics `optional:"true"`
}

type Dispatcher struct {
	log       *zap.Logger
	clock     clock.Clock
	loc       *time.Location
	catalog   *content.Catalog
	allocator rotationdomain.Allocator
	subs      subscriptiondomain.Service
	deliverer delivery.Deliverer
	metrics   *metrics.Metrics
}

func New(p DispatcherParam) *Dispatcher {
	return &Dispatcher{
		log:       p.Log.Named("broadcast.dispatcher"),
		clock:     p.Clock,
		loc:       p.Location,
		catalog:   p.Catalog,
		allocator: p.Allocator,
		subs:      p.Subs,
		deliverer: p.Deliverer,
		metrics:   p.Metrics,
	}
}

// RunPhrase sends the next phrase of the day to everyone subscribed.
func (d *Dispatcher) RunPhrase(ctx context.Context) error {
	item, err := d.nextPhrase(ctx)
	if err != nil {
		return err
	}
	return d.fanOut(ctx, subscriptiondomain.KindPhrase, renderPhrase(item))
}

// RunFact sends the next fact of the day. Categories rotate round-robin,
// and each category keeps its own cursor so adding a category never
// perturbs the others.
func (d *Dispatcher) RunFact(ctx context.Context) error {
	item, category, err := d.nextFact(ctx)
	if err != nil {
		return err
	}
	return d.fanOut(ctx, subscriptiondomain.KindFact, renderFact(item, category))
}

// RunQuizReminder nudges subscribers to take the weekly quiz. No rotation
// cursor is involved; the per-day marker still guards against a double
// send when the job reruns the same day.
func (d *Dispatcher) RunQuizReminder(ctx context.Context) error {
	return d.fanOut(ctx, subscriptiondomain.KindQuiz, renderQuizReminder())
}

func (d *Dispatcher) nextPhrase(ctx context.Context) (content.Record, error) {
	items := d.catalog.Phrases
	idx, err := d.allocator.NextIndex(ctx, phraseNamespace, len(items))
	if err != nil {
		return content.Record{}, fmt.Errorf("allocate phrase index: %w", err)
	}
	return items[idx], nil
}

func (d *Dispatcher) nextFact(ctx context.Context) (content.Record, string, error) {
	categories := d.catalog.FactCategories()
	catIdx, err := d.allocator.NextIndex(ctx, factCategoryNamespace, len(categories))
	if err != nil {
		return content.Record{}, "", fmt.Errorf("allocate fact category: %w", err)
	}
	category := categories[catIdx]

	items := d.catalog.FactsFor(category)
	idx, err := d.allocator.NextIndex(ctx, "facts:"+category, len(items))
	if err != nil {
		return content.Record{}, "", fmt.Errorf("allocate fact index: %w", err)
	}
	return items[idx], category, nil
}

func (d *Dispatcher) fanOut(ctx context.Context, kind subscriptiondomain.Kind, text string) error {
	recipients, err := d.subs.Recipients(ctx, kind)
	if err != nil {
		return fmt.Errorf("list %s recipients: %w", kind, err)
	}

	d.observeRun(kind)
	today := dates.Day(d.clock.Now(), d.loc)
	sent, skipped, failed := 0, 0, 0

	for _, userID := range recipients {
		last, err := d.subs.LastDelivery(ctx, userID, kind)
		if err != nil {
			failed++
			d.observeDelivery(kind, "failed")
			d.log.Warn("delivery marker lookup failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		if last == today {
			skipped++
			d.observeDelivery(kind, "skipped")
			continue
		}

		if err := d.deliverer.Deliver(ctx, userID, text); err != nil {
			failed++
			d.observeDelivery(kind, "failed")
			d.log.Warn("delivery failed",
				zap.String("kind", string(kind)),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			continue
		}

		// Marker is written only after a successful send; a failed send
		// leaves the user eligible for a retry run the same day.
		if err := d.subs.MarkDelivered(ctx, userID, kind, today); err != nil {
			d.log.Warn("delivery marker write failed",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		sent++
		d.observeDelivery(kind, "sent")
	}

	d.log.Info("broadcast finished",
		zap.String("kind", string(kind)),
		zap.Int("sent", sent),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

func (d *Dispatcher) observeRun(kind subscriptiondomain.Kind) {
	if d.metrics == nil {
		return
	}
	d.metrics.BroadcastRuns.WithLabelValues(string(kind)).Inc()
}

func (d *Dispatcher) observeDelivery(kind subscriptiondomain.Kind, outcome string) {
	if d.metrics == nil {
		return
	}
	d.metrics.BroadcastDeliveries.WithLabelValues(string(kind), outcome).Inc()
}

func renderPhrase(item content.Record) string {
	note := item.Note
	if note == "" {
		note = "—"
	}
	return fmt.Sprintf(
		"☀️ בוקר טוב!\nВот тебе фраза дня:\n\n🗣 %s\n📘 Перевод: %s\n💬 Пояснение: %s",
		item.He, item.Ru, note,
	)
}

func renderFact(item content.Record, category string) string {
	return fmt.Sprintf(
		"🌙 ערב טוב!\nФакт дня (%s):\n\n%s\n\n🗣 %s",
		category, item.Ru, item.He,
	)
}

func renderQuizReminder() string {
	return "🎲 שבוע טוב!\nНовая неделя — самое время проверить себя.\nЖми /quiz и посмотрим, сколько фраз ты запомнил за неделю!"
}
