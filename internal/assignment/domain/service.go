package domain

import (
	"context"
	"errors"

	catalogdomain "github.com/apexmed/commission/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateProviderAssignmentRequest struct {
	OrgID                     snowflake.ID
	ProviderID                snowflake.ID
	SalesRepID                snowflake.ID
	RelationshipType          RelationshipType
	CommissionSplitPercentage decimal.Decimal
	OverrideCommissionRate    *decimal.Decimal
	CanCreateOrders           bool
}

type CreateFacilityAssignmentRequest struct {
	OrgID                     snowflake.ID
	FacilityID                snowflake.ID
	SalesRepID                snowflake.ID
	RelationshipType          RelationshipType
	CommissionSplitPercentage decimal.Decimal
	OverrideCommissionRate    *decimal.Decimal
	CommissionEligible        bool
}

type Service interface {
	// AssignProviderRep creates an assignment. A new active primary
	// closes any existing active primary for the provider in the same
	// transaction.
	AssignProviderRep(ctx context.Context, req CreateProviderAssignmentRequest) (ProviderSalesAssignment, error)
	AssignFacilityRep(ctx context.Context, req CreateFacilityAssignmentRequest) (FacilitySalesAssignment, error)

	// ResolveRep determines the responsible rep for an order:
	// direct order assignment, then active primary provider
	// assignment, then commission-eligible facility coordinator.
	// A nil result means the order is skipped from commissioning.
	ResolveRep(ctx context.Context, order catalogdomain.Order) (*ResolvedRep, error)
}

var (
	ErrInvalidProvider     = errors.New("assignment_invalid_provider")
	ErrInvalidFacility     = errors.New("assignment_invalid_facility")
	ErrInvalidSalesRep     = errors.New("assignment_invalid_sales_rep")
	ErrInvalidRelationship = errors.New("assignment_invalid_relationship")
	// ErrPrimaryConflict surfaces a lost race for the provider's single
	// active primary slot.
	ErrPrimaryConflict = errors.New("assignment_primary_conflict")
)
