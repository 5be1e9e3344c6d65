// Package receipt implements the payment-proof intake flow. A chat enters
// "awaiting proof" on an explicit user action; the next matching message
// is relayed to the administrator for manual approval. Entitlement is
// never granted from proof content — only the admin command does that.
package receipt

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/config"
	"github.com/ahlabot/ahlabot/internal/delivery"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Provider identifies the expected payment channel.
type Provider string

const ProviderBit Provider = "bit"

// Outcome classifies what Handle did with a message.
type Outcome int

const (
	// NotAwaiting: the chat has no open intake; the message is none of
	// our business.
	NotAwaiting Outcome = iota
	// Accepted: proof matched and was relayed to the administrator.
	Accepted
	// Rejected: the chat is awaiting proof but the message didn't match;
	// the intake stays open.
	Rejected
)

var (
	paymentLinkRe = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:paybox\.co\.il|bit(?:pay)?\.co\.il|bit\.ly)/\S+`)
	amountRe      = regexp.MustCompile(`(?i)\d+(?:[.,]\d{1,2})?\s*(?:₪|ils|nis|шек(?:ел[ьяи])?)`)
)

type awaiting struct {
	provider Provider
	openedAt time.Time
}

// Message is the transport-agnostic shape of an inbound chat message as
// the intake sees it.
type Message struct {
	Text     string
	Caption  string
	HasImage bool
	FromID   int64
	FromName string
}

type IntakeParam struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Config    config.Config
	Limits    *config.LimitsHolder
	GenID     *snowflake.Node
	Deliverer delivery.Deliverer
}

// Intake keeps the per-chat awaiting-proof state in process memory. The
// state is short-lived by contract, so losing it on restart is fine.
type Intake struct {
	log       *zap.Logger
	clock     clock.Clock
	limits    *config.LimitsHolder
	genID     *snowflake.Node
	deliverer delivery.Deliverer
	adminID   int64

	mu    sync.Mutex
	chats map[int64]awaiting
}

func NewIntake(p IntakeParam) *Intake {
	return &Intake{
		log:       p.Log.Named("receipt.intake"),
		clock:     p.Clock,
		limits:    p.Limits,
		genID:     p.GenID,
		deliverer: p.Deliverer,
		adminID:   p.Config.AdminChatID,
		chats:     make(map[int64]awaiting),
	}
}

// Open puts the chat into awaiting-proof state.
func (i *Intake) Open(chatID int64) {
	i.mu.Lock()
	i.chats[chatID] = awaiting{provider: ProviderBit, openedAt: i.clock.Now()}
	i.mu.Unlock()
}

// Cancel clears the awaiting state, if any.
func (i *Intake) Cancel(chatID int64) {
	i.mu.Lock()
	delete(i.chats, chatID)
	i.mu.Unlock()
}

// Awaiting reports whether the chat currently has an open, unexpired intake.
func (i *Intake) Awaiting(chatID int64) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.awaitingLocked(chatID)
}

func (i *Intake) awaitingLocked(chatID int64) bool {
	state, ok := i.chats[chatID]
	if !ok {
		return false
	}
	// An intake left open too long expires in place; the chat behaves as
	// NotAwaiting from then on.
	if i.clock.Now().Sub(state.openedAt) > i.limits.Get().ReceiptWait() {
		delete(i.chats, chatID)
		return false
	}
	return true
}

// Handle evaluates one inbound message against the open intake, if any.
// On acceptance the proof is relayed to the administrator and the intake
// closes; on mismatch the intake stays open.
func (i *Intake) Handle(ctx context.Context, chatID int64, msg Message) (Outcome, error) {
	i.mu.Lock()
	open := i.awaitingLocked(chatID)
	i.mu.Unlock()
	if !open {
		return NotAwaiting, nil
	}

	if !proofMatches(msg) {
		return Rejected, nil
	}

	receiptID := i.genID.Generate()
	relay := renderRelay(receiptID, chatID, msg)
	if err := i.deliverer.Deliver(ctx, i.adminID, relay); err != nil {
		// The proof matched but never reached the admin; keep the intake
		// open so the user can resend.
		i.log.Error("receipt relay failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return Rejected, err
	}

	i.Cancel(chatID)
	i.log.Info("receipt relayed",
		zap.String("receipt_id", receiptID.String()),
		zap.Int64("chat_id", chatID),
	)
	return Accepted, nil
}

func proofMatches(msg Message) bool {
	if msg.HasImage {
		// Bare images carry no verifiable amount; require a caption.
		return amountRe.MatchString(msg.Caption)
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return false
	}
	return paymentLinkRe.MatchString(text) || amountRe.MatchString(text)
}

func renderRelay(receiptID snowflake.ID, chatID int64, msg Message) string {
	proof := msg.Text
	if msg.HasImage {
		proof = "📎 изображение с подписью: " + msg.Caption
	}
	name := msg.FromName
	if name == "" {
		name = "—"
	}
	return fmt.Sprintf(
		"💳 Новый чек #%s\nОт: %s (id %d, чат %d)\n\n%s\n\nОдобрить: /grant %d <YYYY-MM-DD>",
		receiptID.String(), name, msg.FromID, chatID, proof, msg.FromID,
	)
}
