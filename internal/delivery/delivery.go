// Package delivery defines the outbound message boundary. The chat
// transport implements it; everything above treats sending as
// best-effort "deliver text to recipient".
package delivery

import "context"

type Deliverer interface {
	Deliver(ctx context.Context, recipientID int64, text string) error
}

// Func adapts a plain function to Deliverer.
type Func func(ctx context.Context, recipientID int64, text string) error

func (f Func) Deliver(ctx context.Context, recipientID int64, text string) error {
	return f(ctx, recipientID, text)
}
