package domain

import (
	"time"

	salesrepdomain "github.com/apexmed/commission/internal/salesrep/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// RelationshipType qualifies how a rep is attached to a provider or
// facility.
type RelationshipType string

const (
	RelationshipPrimary     RelationshipType = "primary"
	RelationshipSecondary   RelationshipType = "secondary"
	RelationshipCoordinator RelationshipType = "coordinator"
)

// ProviderSalesAssignment attaches a rep to an ordering provider. At
// most one active primary assignment may exist per provider at any
// instant.
type ProviderSalesAssignment struct {
	ID                        snowflake.ID     `gorm:"primaryKey"`
	OrgID                     snowflake.ID     `gorm:"not null;index"`
	ProviderID                snowflake.ID     `gorm:"not null;index"`
	SalesRepID                snowflake.ID     `gorm:"not null"`
	RelationshipType          RelationshipType `gorm:"type:text;not null;default:'primary'"`
	CommissionSplitPercentage decimal.Decimal  `gorm:"type:numeric(7,4);not null;default:100"`
	OverrideCommissionRate    *decimal.Decimal `gorm:"type:numeric(7,4)"`
	CanCreateOrders           bool             `gorm:"not null;default:false"`
	ActiveFrom                time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	ActiveUntil               *time.Time       `gorm:""`
	IsActive                  bool             `gorm:"not null;default:true"`
	CreatedAt                 time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ProviderSalesAssignment) TableName() string { return "provider_sales_assignments" }

// FacilitySalesAssignment attaches a rep to a facility. Coordinator
// assignments flagged commission-eligible participate in rep
// resolution.
type FacilitySalesAssignment struct {
	ID                        snowflake.ID     `gorm:"primaryKey"`
	OrgID                     snowflake.ID     `gorm:"not null;index"`
	FacilityID                snowflake.ID     `gorm:"not null;index"`
	SalesRepID                snowflake.ID     `gorm:"not null"`
	RelationshipType          RelationshipType `gorm:"type:text;not null;default:'coordinator'"`
	CommissionSplitPercentage decimal.Decimal  `gorm:"type:numeric(7,4);not null;default:100"`
	OverrideCommissionRate    *decimal.Decimal `gorm:"type:numeric(7,4)"`
	CommissionEligible        bool             `gorm:"not null;default:false"`
	ActiveFrom                time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
	ActiveUntil               *time.Time       `gorm:""`
	IsActive                  bool             `gorm:"not null;default:true"`
	CreatedAt                 time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (FacilitySalesAssignment) TableName() string { return "facility_sales_assignments" }

// RepSource records which precedence level resolved the rep.
type RepSource string

const (
	RepSourceOrder    RepSource = "order"
	RepSourceProvider RepSource = "provider_assignment"
	RepSourceFacility RepSource = "facility_assignment"
)

// ResolvedRep is the outcome of rep resolution for an order: the rep
// plus the assignment-level override rate when one applied.
type ResolvedRep struct {
	Rep          salesrepdomain.SalesRep
	OverrideRate *decimal.Decimal
	Source       RepSource
}
