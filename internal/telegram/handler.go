package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v4"

	"github.com/ahlabot/ahlabot/internal/broadcast"
	"github.com/ahlabot/ahlabot/internal/config"
	entitlementdomain "github.com/ahlabot/ahlabot/internal/entitlement/domain"
	"github.com/ahlabot/ahlabot/internal/nlp"
	quizdomain "github.com/ahlabot/ahlabot/internal/quiz/domain"
	"github.com/ahlabot/ahlabot/internal/receipt"
	subscriptiondomain "github.com/ahlabot/ahlabot/internal/subscription/domain"
	usagedomain "github.com/ahlabot/ahlabot/internal/usage/domain"
)

const handlerTimeout = 90 * time.Second

// exchange remembers the latest translation per chat so the follow-up
// buttons (breakdown, retry) have something to work on after the
// callback's 64-byte payload limit.
type exchange struct {
	source      string
	translation string
}

type HandlerParam struct {
	fx.In

	Bot          *tele.Bot
	Log          *zap.Logger
	Config       config.Config
	Location     *time.Location
	Usage        usagedomain.Service
	Entitlement  entitlementdomain.Service
	Subscription subscriptiondomain.Service
	Quiz         quizdomain.Service
	NLP          *nlp.Service
	Receipts     *receipt.Intake
	Dispatcher   *broadcast.Dispatcher
}

type Handler struct {
	bot          *tele.Bot
	log          *zap.Logger
	adminID      int64
	loc          *time.Location
	usage        usagedomain.Service
	entitlement  entitlementdomain.Service
	subscription subscriptiondomain.Service
	quiz         quizdomain.Service
	nlp          *nlp.Service
	receipts     *receipt.Intake
	dispatcher   *broadcast.Dispatcher

	mu        sync.Mutex
	exchanges map[int64]exchange
}

func NewHandler(p HandlerParam) *Handler {
	return &Handler{
		bot:          p.Bot,
		log:          p.Log.Named("telegram.handler"),
		adminID:      p.Config.AdminChatID,
		loc:          p.Location,
		usage:        p.Usage,
		entitlement:  p.Entitlement,
		subscription: p.Subscription,
		quiz:         p.Quiz,
		nlp:          p.NLP,
		receipts:     p.Receipts,
		dispatcher:   p.Dispatcher,
		exchanges:    make(map[int64]exchange),
	}
}

// Register wires every command and update type exactly once.
func (h *Handler) Register() {
	h.bot.Handle("/start", h.onStart)
	h.bot.Handle("/help", h.onHelp)
	h.bot.Handle("/id", h.onID)
	h.bot.Handle("/status", h.onStatus)
	h.bot.Handle("/phrases", h.onTogglePhrases)
	h.bot.Handle("/facts", h.onToggleFacts)
	h.bot.Handle("/quizremind", h.onToggleQuizReminder)
	h.bot.Handle("/premium", h.onPremium)
	h.bot.Handle("/cancel", h.onCancel)
	h.bot.Handle("/quiz", h.onQuiz)
	h.bot.Handle("/quizstats", h.onQuizStats)
	h.bot.Handle("/quizreset", h.onQuizReset)

	h.bot.Handle("/grant", h.adminOnly(h.onGrant))
	h.bot.Handle("/revoke", h.adminOnly(h.onRevoke))
	h.bot.Handle("/sendphrase", h.adminOnly(h.onSendPhrase))
	h.bot.Handle("/sendfact", h.adminOnly(h.onSendFact))

	h.bot.Handle(tele.OnText, h.onText)
	h.bot.Handle(tele.OnVoice, h.onVoice)
	h.bot.Handle(tele.OnPhoto, h.onPhoto)
	h.bot.Handle(tele.OnDocument, h.onPhoto)

	h.bot.Handle(&btnExplain, h.onExplain)
	h.bot.Handle(&btnQuizAnswer, h.onQuizAnswer)
	h.bot.Handle(&btnQuizNext, h.onQuiz)
}

func (h *Handler) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

func (h *Handler) onStart(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	if _, err := h.subscription.Ensure(ctx, c.Sender().ID); err != nil {
		h.log.Warn("ensure preferences failed", zap.Int64("user_id", c.Sender().ID), zap.Error(err))
	}

	return c.Send("Привет! Я помогаю учить разговорный иврит.\n\n" +
		"Пришли мне фразу на иврите (текстом или голосом) — я переведу и разберу её.\n" +
		"Каждое утро присылаю фразу дня, вечером — интересный факт об Израиле.\n\n" +
		"Команды: /help")
}

func (h *Handler) onHelp(c tele.Context) error {
	return c.Send("Что я умею:\n" +
		"• текст или голосовое на иврите → перевод и разбор\n" +
		"• /quiz — проверить себя\n" +
		"• /quizstats — счёт, /quizreset — обнулить\n" +
		"• /phrases — вкл/выкл фразу дня\n" +
		"• /facts — вкл/выкл факт дня\n" +
		"• /quizremind — вкл/выкл напоминание о квизе по воскресеньям\n" +
		"• /status — лимиты на сегодня\n" +
		"• /premium — снять лимиты")
}

func (h *Handler) onID(c tele.Context) error {
	return c.Send(fmt.Sprintf("Ваш ID: %d", c.Sender().ID))
}

func (h *Handler) onStatus(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	userID := c.Sender().ID
	if h.entitlement.IsPremium(ctx, userID) {
		ent, err := h.entitlement.Get(ctx, userID)
		if err == nil {
			return c.Send(fmt.Sprintf("⭐ Премиум активен до %s. Лимиты не применяются.", ent.ExpiresOn))
		}
		return c.Send("⭐ Премиум активен. Лимиты не применяются.")
	}

	rec, err := h.usage.Today(ctx, userID)
	if err != nil {
		return c.Send("Не получилось посмотреть лимиты, попробуйте позже.")
	}
	return c.Send(fmt.Sprintf(
		"Сегодня использовано:\n• текстовых переводов: %d\n• голосовых: %d\n• символов: %d\n• секунд аудио: %d\n\nСнять лимиты: /premium",
		rec.TextMessages, rec.AudioMessages, rec.TextChars, rec.AudioSeconds,
	))
}

func (h *Handler) onTogglePhrases(c tele.Context) error {
	return h.toggle(c, subscriptiondomain.KindPhrase, "Фраза дня")
}

func (h *Handler) onToggleFacts(c tele.Context) error {
	return h.toggle(c, subscriptiondomain.KindFact, "Факт дня")
}

func (h *Handler) onToggleQuizReminder(c tele.Context) error {
	return h.toggle(c, subscriptiondomain.KindQuiz, "Воскресное напоминание о квизе")
}

func (h *Handler) toggle(c tele.Context, kind subscriptiondomain.Kind, label string) error {
	ctx, cancel := h.ctx()
	defer cancel()

	on, err := h.subscription.Toggle(ctx, c.Sender().ID, kind)
	if err != nil {
		return c.Send("Не получилось изменить настройку, попробуйте позже.")
	}
	if on {
		return c.Send(label + ": включено ✅")
	}
	return c.Send(label + ": выключено 🔕")
}

func (h *Handler) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil || c.Sender().ID != h.adminID {
			return c.Send("Эта команда только для администратора.")
		}
		return next(c)
	}
}

func (h *Handler) onSendPhrase(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	if err := h.dispatcher.RunPhrase(ctx); err != nil {
		return c.Send("Рассылка фразы не удалась: " + err.Error())
	}
	return c.Send("Фраза дня разослана.")
}

func (h *Handler) onSendFact(c tele.Context) error {
	ctx, cancel := h.ctx()
	defer cancel()

	if err := h.dispatcher.RunFact(ctx); err != nil {
		return c.Send("Рассылка факта не удалась: " + err.Error())
	}
	return c.Send("Факт дня разослан.")
}

func (h *Handler) rememberExchange(chatID int64, source, translation string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges[chatID] = exchange{source: source, translation: translation}
}

func (h *Handler) lastExchange(chatID int64) (exchange, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ex, ok := h.exchanges[chatID]
	return ex, ok
}

func argsAfterCommand(c tele.Context) []string {
	payload := strings.TrimSpace(c.Message().Payload)
	if payload == "" {
		return nil
	}
	return strings.Fields(payload)
}
