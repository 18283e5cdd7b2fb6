// Package manual is the default payment adapter: it records the
// payout as paid out-of-band and issues a locally generated reference.
package manual

import (
	"context"
	"errors"

	"github.com/apexmed/commission/internal/providers/payment/domain"
	"github.com/google/uuid"
)

type Gateway struct{}

func New() *Gateway { return &Gateway{} }

func (g *Gateway) Name() string { return "manual" }

func (g *Gateway) Charge(ctx context.Context, charge domain.Charge) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if charge.AmountCents <= 0 {
		return "", errors.New("charge amount must be positive")
	}
	return "manual-" + uuid.NewString(), nil
}
