package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// SalesRep is a commissionable representative. ParentRepID links a
// sub-rep to its upline parent; the pointer is a weak reference used
// for lookups only.
type SalesRep struct {
	ID                          snowflake.ID    `gorm:"primaryKey"`
	OrgID                       snowflake.ID    `gorm:"not null;index"`
	ParentRepID                 *snowflake.ID   `gorm:"index"`
	CommissionRateDirect        decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	SubRepParentSharePercentage decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	Territory                   string          `gorm:"type:text;not null;default:''"`
	Active                      bool            `gorm:"not null;default:true"`
	CreatedAt                   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt                   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (SalesRep) TableName() string { return "sales_reps" }

// IsSubRep reports whether the rep's commission must be split with an
// upline parent.
func (r SalesRep) IsSubRep() bool {
	return r.ParentRepID != nil && *r.ParentRepID != 0
}
