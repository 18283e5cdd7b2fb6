package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateRuleRequest struct {
	OrgID          snowflake.ID
	Scope          Scope
	PercentageRate decimal.Decimal
}

type Service interface {
	// Resolve returns the single applicable rule for a line by scope
	// precedence, or nil when no rule at any level matches. A nil
	// result means "skip this item", never a failure.
	Resolve(ctx context.Context, line LineContext, orgID snowflake.ID) (*CommissionRule, error)

	Create(ctx context.Context, req CreateRuleRequest) (CommissionRule, error)

	// Supersede creates a replacement rule and deactivates the old row
	// in one transaction, preserving the old version for records that
	// reference it.
	Supersede(ctx context.Context, ruleID snowflake.ID, rate decimal.Decimal) (CommissionRule, error)
}

var (
	ErrRuleNotFound = errors.New("commission_rule_not_found")
	ErrInvalidScope = errors.New("commission_rule_invalid_scope")
	ErrInvalidRate  = errors.New("commission_rule_invalid_rate")
)
