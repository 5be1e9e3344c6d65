// Package scheduler arms one one-shot timer per recurring broadcast and
// re-arms it after every fire. There is no polling loop: the delay to the
// next local wall-clock occurrence is computed, slept, and recomputed
// from the current clock after the job runs, so the schedule self-corrects
// after drift, delayed fires and restarts.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Job is a recurring broadcast. Weekday nil means daily.
type Job struct {
	Name    string
	Hour    int
	Minute  int
	Weekday *time.Weekday
	Run     func(ctx context.Context) error
}

const fireTimeout = 5 * time.Minute

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Location *time.Location
	Metrics  *metrics.Metrics `optional:"true"`
}

type Scheduler struct {
	log     *zap.Logger
	clock   clock.Clock
	loc     *time.Location
	metrics *metrics.Metrics

	mu   sync.Mutex
	jobs []Job
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:     p.Log.Named("scheduler"),
		clock:   p.Clock,
		loc:     p.Location,
		metrics: p.Metrics,
	}
}

// Add registers a job. Jobs added after Start are ignored.
func (s *Scheduler) Add(jobs ...Job) {
	s.mu.Lock()
	s.jobs = append(s.jobs, jobs...)
	s.mu.Unlock()
}

// Start arms every registered job. Each job loops independently until ctx
// is cancelled; a failed run is logged and the job is re-armed anyway —
// scheduling must never silently stop because one run failed.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		go s.runLoop(ctx, job)
	}
}

func (s *Scheduler) runLoop(ctx context.Context, job Job) {
	for {
		now := s.clock.Now()
		next := s.nextFire(now, job)
		delay := next.Sub(now)

		s.log.Info("job armed",
			zap.String("job", job.Name),
			zap.Time("next_fire", next),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("job loop stopped", zap.String("job", job.Name))
			return
		case <-timer.C:
			s.fire(ctx, job)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.observe(job.Name, "panic")
			s.log.Error("job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", r),
			)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, fireTimeout)
	defer cancel()

	start := s.clock.Now()
	if err := job.Run(runCtx); err != nil {
		s.observe(job.Name, "error")
		s.log.Error("job failed",
			zap.String("job", job.Name),
			zap.Error(err),
		)
		return
	}
	s.observe(job.Name, "ok")
	s.log.Info("job finished",
		zap.String("job", job.Name),
		zap.Duration("took", s.clock.Now().Sub(start)),
	)
}

func (s *Scheduler) nextFire(now time.Time, job Job) time.Time {
	if job.Weekday != nil {
		return NextWeeklyOccurrence(now, *job.Weekday, job.Hour, job.Minute, s.loc)
	}
	return NextOccurrence(now, job.Hour, job.Minute, s.loc)
}

func (s *Scheduler) observe(job, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.SchedulerFires.WithLabelValues(job, result).Inc()
}

// NextOccurrence returns the next hh:mm in loc strictly after now. A
// process starting at or past today's target gets tomorrow's.
func NextOccurrence(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NextWeeklyOccurrence returns the next weekday hh:mm in loc strictly after now.
func NextWeeklyOccurrence(now time.Time, weekday time.Weekday, hour, minute int, loc *time.Location) time.Time {
	next := NextOccurrence(now, hour, minute, loc)
	for next.Weekday() != weekday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
