package service

import (
	"context"

	"github.com/apexmed/commission/internal/assignment/domain"
	catalogdomain "github.com/apexmed/commission/internal/catalog/domain"
	"github.com/apexmed/commission/internal/clock"
	salesrepdomain "github.com/apexmed/commission/internal/salesrep/domain"
	"github.com/apexmed/commission/pkg/db"
	"github.com/apexmed/commission/pkg/repository"
	"github.com/bwmarrin/snowflake"
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

	reps repository.Repository[salesrepdomain.SalesRep]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("assignment.service"),
		genID: p.GenID,
		clock: p.Clock,
		reps:  repository.ProvideStore[salesrepdomain.SalesRep](p.DB),
	}
}

func (s *Service) AssignProviderRep(ctx context.Context, req domain.CreateProviderAssignmentRequest) (domain.ProviderSalesAssignment, error) {
	if req.ProviderID == 0 {
		return domain.ProviderSalesAssignment{}, domain.ErrInvalidProvider
	}
	if req.SalesRepID == 0 {
		return domain.ProviderSalesAssignment{}, domain.ErrInvalidSalesRep
	}
	switch req.RelationshipType {
	case domain.RelationshipPrimary, domain.RelationshipSecondary, domain.RelationshipCoordinator:
	default:
		return domain.ProviderSalesAssignment{}, domain.ErrInvalidRelationship
	}

	now := s.clock.Now()
	assignment := domain.ProviderSalesAssignment{
		ID:                        s.genID.Generate(),
		OrgID:                     req.OrgID,
		ProviderID:                req.ProviderID,
		SalesRepID:                req.SalesRepID,
		RelationshipType:          req.RelationshipType,
		CommissionSplitPercentage: req.CommissionSplitPercentage,
		OverrideCommissionRate:    req.OverrideCommissionRate,
		CanCreateOrders:           req.CanCreateOrders,
		ActiveFrom:                now,
		IsActive:                  true,
		CreatedAt:                 now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.RelationshipType == domain.RelationshipPrimary {
			// Lock any live primary row for this provider before
			// closing it so two concurrent assignments serialize.
			var current []domain.ProviderSalesAssignment
			if err := tx.WithContext(ctx).Raw(
				`SELECT id FROM provider_sales_assignments
				 WHERE provider_id = ? AND relationship_type = ? AND is_active = ?
				 FOR UPDATE`,
				req.ProviderID,
				domain.RelationshipPrimary,
				true,
			).Scan(&current).Error; err != nil {
				return err
			}
			for _, existing := range current {
				if err := tx.WithContext(ctx).Exec(
					`UPDATE provider_sales_assignments
					 SET is_active = ?, active_until = ?
					 WHERE id = ?`,
					false,
					now,
					existing.ID,
				).Error; err != nil {
					return err
				}
			}
		}

		return tx.WithContext(ctx).Create(&assignment).Error
	})
	if err != nil {
		// The partial unique index on active primaries backs the same
		// invariant; a duplicate here means a rival assignment won the
		// slot between our close and insert.
		if db.IsDuplicateKeyErr(err) {
			return domain.ProviderSalesAssignment{}, domain.ErrPrimaryConflict
		}
		return domain.ProviderSalesAssignment{}, err
	}

	return assignment, nil
}

func (s *Service) AssignFacilityRep(ctx context.Context, req domain.CreateFacilityAssignmentRequest) (domain.FacilitySalesAssignment, error) {
	if req.FacilityID == 0 {
		return domain.FacilitySalesAssignment{}, domain.ErrInvalidFacility
	}
	if req.SalesRepID == 0 {
		return domain.FacilitySalesAssignment{}, domain.ErrInvalidSalesRep
	}
	switch req.RelationshipType {
	case domain.RelationshipPrimary, domain.RelationshipSecondary, domain.RelationshipCoordinator:
	default:
		return domain.FacilitySalesAssignment{}, domain.ErrInvalidRelationship
	}

	now := s.clock.Now()
	assignment := domain.FacilitySalesAssignment{
		ID:                        s.genID.Generate(),
		OrgID:                     req.OrgID,
		FacilityID:                req.FacilityID,
		SalesRepID:                req.SalesRepID,
		RelationshipType:          req.RelationshipType,
		CommissionSplitPercentage: req.CommissionSplitPercentage,
		OverrideCommissionRate:    req.OverrideCommissionRate,
		CommissionEligible:        req.CommissionEligible,
		ActiveFrom:                now,
		IsActive:                  true,
		CreatedAt:                 now,
	}

	if err := s.db.WithContext(ctx).Create(&assignment).Error; err != nil {
		return domain.FacilitySalesAssignment{}, err
	}
	return assignment, nil
}

func (s *Service) ResolveRep(ctx context.Context, order catalogdomain.Order) (*domain.ResolvedRep, error) {
	// 1. Direct assignment stored on the order.
	if order.SalesRepID != nil && *order.SalesRepID != 0 {
		rep, err := s.activeRep(ctx, *order.SalesRepID)
		if err != nil {
			return nil, err
		}
		if rep != nil {
			return &domain.ResolvedRep{Rep: *rep, Source: domain.RepSourceOrder}, nil
		}
		s.log.Warn("order references missing or inactive rep, falling through",
			zap.String("order_id", order.ID.String()),
			zap.String("sales_rep_id", order.SalesRepID.String()))
	}

	now := s.clock.Now()

	// 2. Active primary provider assignment.
	if order.OrderingProviderID != 0 {
		var assignments []domain.ProviderSalesAssignment
		err := s.db.WithContext(ctx).
			Where("provider_id = ? AND relationship_type = ? AND is_active = ?", order.OrderingProviderID, domain.RelationshipPrimary, true).
			Where("active_from <= ?", now).
			Where("active_until IS NULL OR active_until > ?", now).
			Order("active_from desc").
			Limit(1).
			Find(&assignments).Error
		if err != nil {
			return nil, err
		}
		if len(assignments) == 1 {
			rep, err := s.activeRep(ctx, assignments[0].SalesRepID)
			if err != nil {
				return nil, err
			}
			if rep != nil {
				return &domain.ResolvedRep{
					Rep:          *rep,
					OverrideRate: assignments[0].OverrideCommissionRate,
					Source:       domain.RepSourceProvider,
				}, nil
			}
		}
	}

	// 3. Commission-eligible facility coordinator.
	if order.FacilityID != 0 {
		var assignments []domain.FacilitySalesAssignment
		err := s.db.WithContext(ctx).
			Where("facility_id = ? AND relationship_type = ? AND commission_eligible = ? AND is_active = ?", order.FacilityID, domain.RelationshipCoordinator, true, true).
			Where("active_from <= ?", now).
			Where("active_until IS NULL OR active_until > ?", now).
			Order("active_from desc").
			Limit(1).
			Find(&assignments).Error
		if err != nil {
			return nil, err
		}
		if len(assignments) == 1 {
			rep, err := s.activeRep(ctx, assignments[0].SalesRepID)
			if err != nil {
				return nil, err
			}
			if rep != nil {
				return &domain.ResolvedRep{
					Rep:          *rep,
					OverrideRate: assignments[0].OverrideCommissionRate,
					Source:       domain.RepSourceFacility,
				}, nil
			}
		}
	}

	return nil, nil
}

func (s *Service) activeRep(ctx context.Context, id snowflake.ID) (*salesrepdomain.SalesRep, error) {
	rep, err := s.reps.FindOne(ctx, &salesrepdomain.SalesRep{ID: id})
	if err != nil {
		return nil, err
	}
	if rep == nil || !rep.Active {
		return nil, nil
	}
	return rep, nil
}
