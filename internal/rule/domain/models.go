package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ScopeType identifies which catalog dimension a rule binds to.
type ScopeType string

const (
	ScopeProduct      ScopeType = "product"
	ScopeManufacturer ScopeType = "manufacturer"
	ScopeCategory     ScopeType = "category"
	ScopeFacility     ScopeType = "facility"
	ScopeDefault      ScopeType = "default"
)

// Scope is a tagged value: ID carries product/manufacturer/facility
// scopes, Value carries the category name, and default has neither.
type Scope struct {
	Type  ScopeType
	ID    snowflake.ID
	Value string
}

func ProductScope(id snowflake.ID) Scope      { return Scope{Type: ScopeProduct, ID: id} }
func ManufacturerScope(id snowflake.ID) Scope { return Scope{Type: ScopeManufacturer, ID: id} }
func CategoryScope(name string) Scope         { return Scope{Type: ScopeCategory, Value: name} }
func FacilityScope(id snowflake.ID) Scope     { return Scope{Type: ScopeFacility, ID: id} }
func DefaultScope() Scope                     { return Scope{Type: ScopeDefault} }

// CommissionRule binds a percentage rate to a scope for a tenant.
// OrgID 0 marks a platform-wide rule; a tenant's own rule at the same
// scope always wins. Rules are versioned: superseding creates a new
// row and deactivates the old one, so a rule referenced by a
// commission record is never rewritten.
type CommissionRule struct {
	ID             snowflake.ID    `gorm:"primaryKey"`
	OrgID          snowflake.ID    `gorm:"not null;index;default:0"`
	ScopeType      ScopeType       `gorm:"type:text;not null"`
	ScopeID        *snowflake.ID   `gorm:""`
	ScopeValue     *string         `gorm:"type:text"`
	PercentageRate decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0"`
	Active         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CommissionRule) TableName() string { return "commission_rules" }

// LineContext carries the catalog facts rule resolution needs for one
// order line.
type LineContext struct {
	ProductID      snowflake.ID
	ManufacturerID snowflake.ID
	Category       string
	FacilityID     snowflake.ID
}

// Scopes returns the candidate scopes for this line in precedence
// order: product, manufacturer, category, facility, default.
func (c LineContext) Scopes() []Scope {
	scopes := make([]Scope, 0, 5)
	if c.ProductID != 0 {
		scopes = append(scopes, ProductScope(c.ProductID))
	}
	if c.ManufacturerID != 0 {
		scopes = append(scopes, ManufacturerScope(c.ManufacturerID))
	}
	if c.Category != "" {
		scopes = append(scopes, CategoryScope(c.Category))
	}
	if c.FacilityID != 0 {
		scopes = append(scopes, FacilityScope(c.FacilityID))
	}
	return append(scopes, DefaultScope())
}
