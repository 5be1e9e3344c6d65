package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/ahlabot/ahlabot/internal/broadcast"
	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/config"
	"github.com/ahlabot/ahlabot/internal/content"
	"github.com/ahlabot/ahlabot/internal/dates"
	"github.com/ahlabot/ahlabot/internal/entitlement"
	"github.com/ahlabot/ahlabot/internal/health"
	"github.com/ahlabot/ahlabot/internal/logger"
	"github.com/ahlabot/ahlabot/internal/metrics"
	"github.com/ahlabot/ahlabot/internal/nlp"
	"github.com/ahlabot/ahlabot/internal/quiz"
	"github.com/ahlabot/ahlabot/internal/receipt"
	"github.com/ahlabot/ahlabot/internal/rotation"
	"github.com/ahlabot/ahlabot/internal/scheduler"
	"github.com/ahlabot/ahlabot/internal/singleflight"
	"github.com/ahlabot/ahlabot/internal/store"
	"github.com/ahlabot/ahlabot/internal/subscription"
	"github.com/ahlabot/ahlabot/internal/telegram"
	"github.com/ahlabot/ahlabot/internal/usage"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		clock.Module,
		dates.Module,
		metrics.Module,
		store.Module,
		fx.Provide(RegisterSnowflake),
		singleflight.Module,

		// Domain services
		content.Module,
		entitlement.Module,
		usage.Module,
		subscription.Module,
		rotation.Module,
		quiz.Module,
		nlp.Module,
		receipt.Module,
		broadcast.Module,

		// Edges
		scheduler.Module,
		telegram.Module,
		health.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
