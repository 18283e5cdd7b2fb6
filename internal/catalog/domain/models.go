// Package domain contains the read-only catalog and order records the
// engine consumes. They are owned and mutated by external
// collaborators; nothing in this module writes them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Product struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	OrgID          snowflake.ID `gorm:"not null;index"`
	ManufacturerID snowflake.ID `gorm:"not null;default:0"`
	Category       string       `gorm:"type:text;not null;default:''"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// OrderStatusFinalized marks an order whose lines are settled and
// eligible for commissioning.
const OrderStatusFinalized = "finalized"

type Order struct {
	ID                 snowflake.ID  `gorm:"primaryKey"`
	OrgID              snowflake.ID  `gorm:"not null;index"`
	FacilityID         snowflake.ID  `gorm:"not null;default:0"`
	OrderingProviderID snowflake.ID  `gorm:"not null;default:0"`
	SalesRepID         *snowflake.ID `gorm:""`
	Status             string        `gorm:"type:text;not null;default:'finalized'"`
	CreatedAt          time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

type OrderItem struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrderID   snowflake.ID `gorm:"not null;index"`
	ProductID snowflake.ID `gorm:"not null"`
	Category  string       `gorm:"type:text;not null;default:''"`
	Quantity  int64        `gorm:"not null;default:1"`
	UnitPrice int64        `gorm:"not null;default:0"`
	LineTotal int64        `gorm:"not null;default:0"`
}

// TableName sets the database table name.
func (OrderItem) TableName() string { return "order_items" }
