package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// ProcessOrder commissions every line of a finalized order inside
	// one transaction. Orders without a resolvable rep and lines
	// without an applicable rule are skipped, not failed.
	ProcessOrder(ctx context.Context, orderID snowflake.ID) error

	// RecalculateOrder deletes the order's pending records and
	// reprocesses it. Approved, claimed and paid records are never
	// touched.
	RecalculateOrder(ctx context.Context, orderID snowflake.ID) error

	// ApproveOrder transitions the order's pending records to
	// approved, stamping the approving actor.
	ApproveOrder(ctx context.Context, orderID snowflake.ID, approvedBy string) error

	// ListByOrder returns the order's records in creation order. A
	// limit of zero or less returns all of them.
	ListByOrder(ctx context.Context, orderID snowflake.ID, limit int) ([]CommissionRecord, error)
}

var (
	ErrOrderNotFound   = errors.New("order_not_found")
	ErrInvalidApprover = errors.New("invalid_approver")
	ErrOrderNotFinal   = errors.New("order_not_finalized")
)
