package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/ahlabot/ahlabot/internal/config"
	"github.com/ahlabot/ahlabot/internal/scheduler"
	"go.uber.org/fx"
)

var Module = fx.Module("broadcast",
	fx.Provide(New),
	fx.Provide(
		fx.Annotate(provideJobs, fx.ResultTags(`group:"schedule.jobs,flatten"`)),
	),
)

// provideJobs arms the two daily broadcasts at their configured local
// times, plus the weekly quiz nudge on Sunday.
func provideJobs(cfg config.Config, d *Dispatcher) ([]scheduler.Job, error) {
	phraseH, phraseM, err := scheduler.ParseTimeOfDay(cfg.PhraseTime)
	if err != nil {
		return nil, fmt.Errorf("PHRASE_TIME: %w", err)
	}
	factH, factM, err := scheduler.ParseTimeOfDay(cfg.FactTime)
	if err != nil {
		return nil, fmt.Errorf("FACT_TIME: %w", err)
	}
	quizH, quizM, err := scheduler.ParseTimeOfDay(cfg.QuizTime)
	if err != nil {
		return nil, fmt.Errorf("QUIZ_TIME: %w", err)
	}

	sunday := time.Sunday
	return []scheduler.Job{
		{
			Name:   "daily_phrase",
			Hour:   phraseH,
			Minute: phraseM,
			Run:    func(ctx context.Context) error { return d.RunPhrase(ctx) },
		},
		{
			Name:   "daily_fact",
			Hour:   factH,
			Minute: factM,
			Run:    func(ctx context.Context) error { return d.RunFact(ctx) },
		},
		{
			Name:    "weekly_quiz_reminder",
			Hour:    quizH,
			Minute:  quizM,
			Weekday: &sunday,
			Run:     func(ctx context.Context) error { return d.RunQuizReminder(ctx) },
		},
	}, nil
}
