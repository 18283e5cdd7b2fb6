package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type GeneratePayoutsRequest struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	// OrgID filters the run to one tenant; zero means all tenants.
	OrgID snowflake.ID
}

// SummaryTotals aggregates payouts for reporting.
type SummaryTotals struct {
	Count      int64 `json:"count"`
	Gross      int64 `json:"gross"`
	Deductions int64 `json:"deductions"`
	Net        int64 `json:"net"`
}

type RepSummary struct {
	RepID snowflake.ID `json:"rep_id"`
	SummaryTotals
}

type PayoutSummary struct {
	PeriodStart time.Time                `json:"period_start"`
	PeriodEnd   time.Time                `json:"period_end"`
	Totals      SummaryTotals            `json:"totals"`
	ByStatus    map[string]SummaryTotals `json:"by_status"`
	ByRep       []RepSummary             `json:"by_rep"`
}

type Service interface {
	// GeneratePayouts batches approved, unclaimed commission records
	// created in [PeriodStart, PeriodEnd) into one payout per rep,
	// claiming each record exactly once. Reps with no qualifying
	// records produce no payout.
	GeneratePayouts(ctx context.Context, req GeneratePayoutsRequest) ([]CommissionPayout, error)

	GetByID(ctx context.Context, id snowflake.ID) (CommissionPayout, error)

	// Approve moves a calculated payout to approved.
	Approve(ctx context.Context, id snowflake.ID, approvedBy string) error

	// Cancel moves a calculated or approved payout to cancelled and
	// reverts its linked records to approved, unclaiming them.
	Cancel(ctx context.Context, id snowflake.ID, reason string) error

	// ProcessPayments pays approved payouts one by one. A failure on
	// one payout is captured in its result entry and never blocks the
	// rest of the batch.
	ProcessPayments(ctx context.Context, ids []snowflake.ID, method string) []PaymentResult

	GetPayoutSummary(ctx context.Context, req GeneratePayoutsRequest) (PayoutSummary, error)
}

var (
	ErrPayoutNotFound         = errors.New("payout_not_found")
	ErrInvalidStateTransition = errors.New("invalid_state_transition")
	ErrInvalidPeriod          = errors.New("invalid_payout_period")
	ErrInvalidApprover        = errors.New("invalid_approver")
	ErrConcurrentClaim        = errors.New("concurrent_payout_claim")
	ErrRunInProgress          = errors.New("payout_run_in_progress")
	ErrNoGateway              = errors.New("payment_gateway_not_configured")
)
