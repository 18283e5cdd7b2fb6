// Package domain contains persistence models for commission records.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Status is the commission record lifecycle state.
type Status string

const (
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusIncludedInPayout Status = "included_in_payout"
	StatusPaid             Status = "paid"
)

// SplitType marks whether a record carries the full commission or one
// leg of a sub-rep split.
type SplitType string

const (
	SplitDirect      SplitType = "direct"
	SplitSubRepShare SplitType = "sub_rep_share"
	SplitParentShare SplitType = "parent_share"
)

// CommissionRecord is one rep's entitlement on one order line.
// Amounts are integer cents. Once PayoutID is set the record is
// immutable except for the terminal transition to paid.
type CommissionRecord struct {
	ID               snowflake.ID    `gorm:"primaryKey"`
	OrgID            snowflake.ID    `gorm:"not null;index"`
	OrderID          snowflake.ID    `gorm:"not null;index"`
	OrderItemID      snowflake.ID    `gorm:"not null"`
	RepID            snowflake.ID    `gorm:"not null;index"`
	ParentRepID      *snowflake.ID   `gorm:""`
	RuleID           snowflake.ID    `gorm:"not null"`
	BaseAmount       int64           `gorm:"not null;default:0"`
	CommissionAmount int64           `gorm:"not null;default:0"`
	PercentageRate   decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	SplitType        SplitType       `gorm:"type:text;not null;default:'direct'"`
	Status           Status          `gorm:"type:text;not null;default:'pending'"`
	PayoutID         *snowflake.ID   `gorm:"index"`
	ApprovedBy       *string         `gorm:"type:text"`
	ApprovedAt       *time.Time      `gorm:""`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CommissionRecord) TableName() string { return "commission_records" }

// SplitResult is the exact division of a gross commission between a
// sub-rep and its parent. SubRepShare + ParentShare always equals the
// gross amount.
type SplitResult struct {
	SubRepShare int64
	ParentShare int64
}
