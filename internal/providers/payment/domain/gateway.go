package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Charge is the opaque payment instruction for one payout.
type Charge struct {
	PayoutID    snowflake.ID
	RepID       snowflake.ID
	AmountCents int64
	Method      string
}

// Gateway is the external payment rail. Charge either returns a
// payment reference or an error; the engine never retries inside a
// batch.
type Gateway interface {
	Name() string
	Charge(ctx context.Context, charge Charge) (string, error)
}

var ErrProviderNotFound = errors.New("payment_provider_not_found")
