package receipt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ahlabot/ahlabot/internal/clock"
	"github.com/ahlabot/ahlabot/internal/config"
)

const adminID int64 = 777

type relayStub struct {
	mu     sync.Mutex
	sent   []string
	sentTo []int64
	err    error
}

func (r *relayStub) Deliver(ctx context.Context, recipientID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sentTo = append(r.sentTo, recipientID)
	r.sent = append(r.sent, text)
	return nil
}

func setupIntake(t *testing.T) (*Intake, *relayStub, *clock.FakeClock) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	relay := &relayStub{}
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	intake := NewIntake(IntakeParam{
		Log:       zap.NewNop(),
		Clock:     fake,
		Config:    config.Config{AdminChatID: adminID},
		Limits:    config.NewStaticLimits(config.Limits{ReceiptWaitMinutes: 15}),
		GenID:     node,
		Deliverer: relay,
	})
	return intake, relay, fake
}

func TestHandleNotAwaiting(t *testing.T) {
	intake, relay, _ := setupIntake(t)

	outcome, err := intake.Handle(context.Background(), 42, Message{Text: "150 ₪", FromID: 42})
	require.NoError(t, err)
	assert.Equal(t, NotAwaiting, outcome)
	assert.Empty(t, relay.sent, "nothing should reach the admin without an open intake")
}

func TestHandleAcceptsAmountAndCloses(t *testing.T) {
	intake, relay, _ := setupIntake(t)

	intake.Open(42)
	outcome, err := intake.Handle(context.Background(), 42,
		Message{Text: "оплатил 150 ₪", FromID: 42, FromName: "Дана"})
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome)

	require.Len(t, relay.sentTo, 1)
	assert.Equal(t, adminID, relay.sentTo[0])
	assert.Contains(t, relay.sent[0], "/grant 42", "relay should carry the grant hint")
	assert.False(t, intake.Awaiting(42), "intake must close after acceptance")
}

func TestHandleAcceptsPaymentLink(t *testing.T) {
	intake, _, _ := setupIntake(t)

	intake.Open(42)
	outcome, err := intake.Handle(context.Background(), 42,
		Message{Text: "вот https://www.bit.co.il/p/abc123", FromID: 42})
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome)
}

func TestHandleRejectsChatterAndStaysOpen(t *testing.T) {
	intake, relay, _ := setupIntake(t)

	intake.Open(42)
	outcome, err := intake.Handle(context.Background(), 42,
		Message{Text: "а сколько это стоит?", FromID: 42})
	require.NoError(t, err)
	assert.Equal(t, Rejected, outcome)
	assert.Empty(t, relay.sent, "mismatched proof must not reach the admin")
	assert.True(t, intake.Awaiting(42), "intake must stay open after a mismatch")
}

func TestHandleImageNeedsCaption(t *testing.T) {
	intake, _, _ := setupIntake(t)
	ctx := context.Background()

	intake.Open(42)
	outcome, _ := intake.Handle(ctx, 42, Message{HasImage: true, FromID: 42})
	assert.Equal(t, Rejected, outcome, "bare image carries no verifiable amount")

	outcome, _ = intake.Handle(ctx, 42, Message{HasImage: true, Caption: "чек на 49.90 шек", FromID: 42})
	assert.Equal(t, Accepted, outcome)
}

func TestHandleRelayFailureKeepsIntakeOpen(t *testing.T) {
	intake, relay, _ := setupIntake(t)
	relay.err = errors.New("telegram down")

	intake.Open(42)
	outcome, err := intake.Handle(context.Background(), 42, Message{Text: "150 ₪", FromID: 42})
	assert.Equal(t, Rejected, outcome)
	require.Error(t, err, "relay failure must surface")
	assert.True(t, intake.Awaiting(42), "intake must stay open so the user can resend")
}

func TestIntakeExpires(t *testing.T) {
	intake, _, fake := setupIntake(t)

	intake.Open(42)
	fake.Advance(16 * time.Minute)

	assert.False(t, intake.Awaiting(42), "intake should expire after the wait window")

	outcome, _ := intake.Handle(context.Background(), 42, Message{Text: "150 ₪", FromID: 42})
	assert.Equal(t, NotAwaiting, outcome)
}

func TestCancel(t *testing.T) {
	intake, _, _ := setupIntake(t)

	intake.Open(42)
	intake.Cancel(42)
	assert.False(t, intake.Awaiting(42))
}
