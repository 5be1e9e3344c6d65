package telegram

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	"github.com/ahlabot/ahlabot/internal/delivery"
)

var Module = fx.Module("telegram",
	fx.Provide(
		NewBot,
		fx.Annotate(NewDeliverer, fx.As(new(delivery.Deliverer))),
		NewHandler,
	),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, bot *tele.Bot, h *Handler, log *zap.Logger) {
	botLog := log.Named("telegram")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// A lingering webhook from another deployment blocks long
			// polling; clear it and drop the queued updates.
			if err := bot.RemoveWebhook(true); err != nil {
				botLog.Warn("webhook removal failed", zap.Error(err))
			}

			h.Register()

			go bot.Start()
			botLog.Info("bot polling started", zap.Int64("bot_id", bot.Me.ID), zap.String("username", bot.Me.Username))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			bot.Stop()
			return nil
		},
	})
}
