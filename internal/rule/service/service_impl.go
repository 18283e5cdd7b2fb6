package service

import (
	"context"

	"github.com/apexmed/commission/internal/clock"
	"github.com/apexmed/commission/internal/rule/domain"
	"github.com/apexmed/commission/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  repository.Repository[domain.CommissionRule]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("rule.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  repository.ProvideStore[domain.CommissionRule](p.DB),
	}
}

func (s *Service) Resolve(ctx context.Context, line domain.LineContext, orgID snowflake.ID) (*domain.CommissionRule, error) {
	for _, scope := range line.Scopes() {
		rule, err := s.findByScope(ctx, s.db, scope, orgID)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			return rule, nil
		}
	}
	return nil, nil
}

// findByScope returns the authoritative rule at one scope level: the
// tenant's own rule beats the platform-wide (org_id = 0) rule, and
// ties within an org go to the most recently created row.
func (s *Service) findByScope(ctx context.Context, db *gorm.DB, scope domain.Scope, orgID snowflake.ID) (*domain.CommissionRule, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.CommissionRule{}).
		Where("scope_type = ? AND active = ?", scope.Type, true).
		Where("org_id IN (?)", []snowflake.ID{orgID, 0})

	switch scope.Type {
	case domain.ScopeProduct, domain.ScopeManufacturer, domain.ScopeFacility:
		stmt = stmt.Where("scope_id = ?", scope.ID)
	case domain.ScopeCategory:
		stmt = stmt.Where("scope_value = ?", scope.Value)
	case domain.ScopeDefault:
		stmt = stmt.Where("scope_id IS NULL AND scope_value IS NULL")
	default:
		return nil, domain.ErrInvalidScope
	}

	var rules []domain.CommissionRule
	err := stmt.
		Order("org_id desc, created_at desc").
		Limit(1).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}
	return &rules[0], nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRuleRequest) (domain.CommissionRule, error) {
	rule, err := s.buildRule(req.OrgID, req.Scope, req.PercentageRate)
	if err != nil {
		return domain.CommissionRule{}, err
	}
	if err := s.repo.Create(ctx, &rule); err != nil {
		return domain.CommissionRule{}, err
	}
	return rule, nil
}

func (s *Service) Supersede(ctx context.Context, ruleID snowflake.ID, rate decimal.Decimal) (domain.CommissionRule, error) {
	if !validRate(rate) {
		return domain.CommissionRule{}, domain.ErrInvalidRate
	}

	var replacement domain.CommissionRule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)

		var existing []domain.CommissionRule
		if err := tx.WithContext(ctx).Raw(
			`SELECT * FROM commission_rules WHERE id = ? FOR UPDATE`,
			ruleID,
		).Scan(&existing).Error; err != nil {
			return err
		}
		if len(existing) == 0 {
			return domain.ErrRuleNotFound
		}
		old := existing[0]

		if err := repo.Update(ctx, ruleID, map[string]any{"active": false}); err != nil {
			return err
		}

		replacement = domain.CommissionRule{
			ID:             s.genID.Generate(),
			OrgID:          old.OrgID,
			ScopeType:      old.ScopeType,
			ScopeID:        old.ScopeID,
			ScopeValue:     old.ScopeValue,
			PercentageRate: rate,
			Active:         true,
			CreatedAt:      s.clock.Now(),
		}
		return repo.Create(ctx, &replacement)
	})
	if err != nil {
		return domain.CommissionRule{}, err
	}
	return replacement, nil
}

func (s *Service) buildRule(orgID snowflake.ID, scope domain.Scope, rate decimal.Decimal) (domain.CommissionRule, error) {
	if !validRate(rate) {
		return domain.CommissionRule{}, domain.ErrInvalidRate
	}

	rule := domain.CommissionRule{
		ID:             s.genID.Generate(),
		OrgID:          orgID,
		ScopeType:      scope.Type,
		PercentageRate: rate,
		Active:         true,
		CreatedAt:      s.clock.Now(),
	}

	switch scope.Type {
	case domain.ScopeProduct, domain.ScopeManufacturer, domain.ScopeFacility:
		if scope.ID == 0 {
			return domain.CommissionRule{}, domain.ErrInvalidScope
		}
		id := scope.ID
		rule.ScopeID = &id
	case domain.ScopeCategory:
		if scope.Value == "" {
			return domain.CommissionRule{}, domain.ErrInvalidScope
		}
		value := scope.Value
		rule.ScopeValue = &value
	case domain.ScopeDefault:
	default:
		return domain.CommissionRule{}, domain.ErrInvalidScope
	}

	return rule, nil
}

func validRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(decimal.NewFromInt(100))
}
