package content

import (
	"github.com/ahlabot/ahlabot/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Provide loads both catalogs, falling back to the embedded lists.
func Provide(cfg config.Config, log *zap.Logger) *Catalog {
	phrases, err := LoadRecords(cfg.PhrasesFile)
	if err != nil {
		log.Warn("phrase catalog unavailable, using fallback",
			zap.String("path", cfg.PhrasesFile),
			zap.Error(err),
		)
		phrases = fallbackPhrases
	}

	facts, err := LoadRecords(cfg.FactsFile)
	if err != nil {
		log.Warn("fact catalog unavailable, using fallback",
			zap.String("path", cfg.FactsFile),
			zap.Error(err),
		)
		facts = fallbackFacts
	}

	log.Info("content catalogs loaded",
		zap.Int("phrases", len(phrases)),
		zap.Int("facts", len(facts)),
	)
	return NewCatalog(phrases, facts)
}

var Module = fx.Module("content",
	fx.Provide(Provide),
)
