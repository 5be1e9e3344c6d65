// Package telegram is the transport edge: it owns the bot connection,
// translates updates into service calls, and renders replies.
package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	"github.com/ahlabot/ahlabot/internal/config"
)

func NewBot(cfg config.Config, log *zap.Logger) (*tele.Bot, error) {
	botLog := log.Named("telegram.bot")

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			fields := []zap.Field{zap.Error(err)}
			if c != nil && c.Sender() != nil {
				fields = append(fields, zap.Int64("user_id", c.Sender().ID))
			}
			botLog.Error("update handling failed", fields...)
		},
	})
	if err != nil {
		return nil, err
	}
	return bot, nil
}

// Deliverer sends plain text messages through the bot. It is the sink the
// broadcast dispatcher and receipt relay write to.
type Deliverer struct {
	bot *tele.Bot
}

func NewDeliverer(bot *tele.Bot) *Deliverer {
	return &Deliverer{bot: bot}
}

func (d *Deliverer) Deliver(ctx context.Context, recipientID int64, text string) error {
	_, err := d.bot.Send(&tele.User{ID: recipientID}, text)
	return err
}
