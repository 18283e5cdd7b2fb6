// Package domain contains persistence models for commission payouts.
package domain

import (
	"context"
	"time"

	commissiondomain "github.com/apexmed/commission/internal/commission/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status is the payout lifecycle state. paid and cancelled are
// terminal.
type Status string

const (
	StatusCalculated Status = "calculated"
	StatusApproved   Status = "approved"
	StatusPaid       Status = "paid"
	StatusCancelled  Status = "cancelled"
)

// CommissionPayout is a period-bounded batch of one rep's approved
// commission records. NetAmount always equals the sum of
// CommissionAmount over the currently linked records.
type CommissionPayout struct {
	ID               snowflake.ID      `gorm:"primaryKey"`
	OrgID            snowflake.ID      `gorm:"not null;index"`
	RepID            snowflake.ID      `gorm:"not null;index"`
	PeriodStart      time.Time         `gorm:"not null"`
	PeriodEnd        time.Time         `gorm:"not null"`
	GrossAmount      int64             `gorm:"not null;default:0"`
	Deductions       int64             `gorm:"not null;default:0"`
	NetAmount        int64             `gorm:"not null;default:0"`
	CommissionCount  int64             `gorm:"not null;default:0"`
	Status           Status            `gorm:"type:text;not null;default:'calculated'"`
	PaymentReference *string           `gorm:"type:text"`
	PaymentMethod    *string           `gorm:"type:text"`
	ApprovedBy       *string           `gorm:"type:text"`
	ApprovedAt       *time.Time        `gorm:""`
	PaidAt           *time.Time        `gorm:""`
	CancelReason     *string           `gorm:"type:text"`
	SummaryData      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CommissionPayout) TableName() string { return "commission_payouts" }

// DeductionPolicy computes the deduction (cents) to withhold from a
// rep's payout. Injected at construction; the default withholds
// nothing. Extension point for tax, advance repayment and chargebacks.
type DeductionPolicy func(ctx context.Context, repID snowflake.ID, records []commissiondomain.CommissionRecord) int64

// PaymentResult is the per-payout outcome of a batch payment run.
// Failures are reported here, never raised.
type PaymentResult struct {
	PayoutID  snowflake.ID `json:"payout_id"`
	Success   bool         `json:"success"`
	Reference string       `json:"reference,omitempty"`
	Error     string       `json:"error,omitempty"`
}
