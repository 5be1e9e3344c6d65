package nlp

import (
	"go.uber.org/fx"

	"github.com/ahlabot/ahlabot/internal/config"
)

var Module = fx.Module("nlp.service",
	fx.Provide(
		fx.Annotate(NewMyMemoryTranslator, fx.As(new(Translator))),
		fx.Annotate(newOpenAIFromConfig, fx.As(new(Transcriber)), fx.As(new(Explainer))),
		New,
	),
)

func newOpenAIFromConfig(cfg config.Config) *OpenAIClient {
	return NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)
}
