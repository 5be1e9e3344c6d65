package nlp

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ahlabot/ahlabot/internal/metrics"
)

// Service is the single entry point the bot uses for language work. It
// decides source hints, retries transient failures, and degrades the
// explainer to the offline idiom table when the provider is flaky.
type Service struct {
	log         *zap.Logger
	metrics     *metrics.Metrics
	translator  Translator
	transcriber Transcriber
	explainer   Explainer
}

type ServiceParam struct {
	fx.In
	Log         *zap.Logger
	Metrics     *metrics.Metrics
	Translator  Translator
	Transcriber Transcriber
	Explainer   Explainer
}

func New(p ServiceParam) *Service {
	return &Service{
		log:         p.Log.Named("nlp.service"),
		metrics:     p.Metrics,
		translator:  p.Translator,
		transcriber: p.Transcriber,
		explainer:   p.Explainer,
	}
}

func (s *Service) Translate(ctx context.Context, text string) (string, error) {
	hint := SourceHint(text)
	out, err := retry(ctx, func(ctx context.Context) (string, error) {
		return s.translator.Translate(ctx, text, hint)
	})
	if err != nil {
		s.metrics.CollaboratorErrors.WithLabelValues("translator", errClass(err)).Inc()
		return "", fmt.Errorf("translate: %w", err)
	}
	return out, nil
}

// Explanation carries the explainer output plus whether it came from the
// degraded offline path.
type Explanation struct {
	Text    string
	Offline bool
}

// Explain asks the online explainer; on transient failure it falls back
// to the embedded idiom table seeded with the given translation. A
// permanent provider error is returned as-is so it reaches the operator.
func (s *Service) Explain(ctx context.Context, heText, translation string) (Explanation, error) {
	out, err := retry(ctx, func(ctx context.Context) (string, error) {
		return s.explainer.Explain(ctx, heText)
	})
	if err == nil {
		return Explanation{Text: out}, nil
	}

	s.metrics.CollaboratorErrors.WithLabelValues("explainer", errClass(err)).Inc()
	if isPermanent(err) {
		return Explanation{}, fmt.Errorf("explain: %w", err)
	}

	s.log.Warn("explainer unavailable, serving offline explanation", zap.Error(err))
	return Explanation{Text: OfflineExplain(heText, translation), Offline: true}, nil
}

func (s *Service) Transcribe(ctx context.Context, audio []byte) (string, error) {
	out, err := retry(ctx, func(ctx context.Context) (string, error) {
		return s.transcriber.Transcribe(ctx, audio, "he")
	})
	if err != nil {
		s.metrics.CollaboratorErrors.WithLabelValues("transcriber", errClass(err)).Inc()
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return out, nil
}
