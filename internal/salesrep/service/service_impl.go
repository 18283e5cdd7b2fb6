package service

import (
	"context"

	"github.com/apexmed/commission/internal/clock"
	"github.com/apexmed/commission/internal/salesrep/domain"
	"github.com/apexmed/commission/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxHierarchyDepth bounds the parent-chain walk so a corrupted chain
// cannot loop forever.
const maxHierarchyDepth = 32

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  repository.Repository[domain.SalesRep]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("salesrep.service"),
		clock: p.Clock,
		repo:  repository.ProvideStore[domain.SalesRep](p.DB),
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.SalesRep, error) {
	rep, err := s.repo.FindOne(ctx, &domain.SalesRep{ID: id})
	if err != nil {
		return domain.SalesRep{}, err
	}
	if rep == nil {
		return domain.SalesRep{}, domain.ErrNotFound
	}
	return *rep, nil
}

func (s *Service) SetParent(ctx context.Context, repID snowflake.ID, parentID *snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)

		rep, err := repo.FindOne(ctx, &domain.SalesRep{ID: repID})
		if err != nil {
			return err
		}
		if rep == nil {
			return domain.ErrNotFound
		}

		if parentID != nil && *parentID != 0 {
			if *parentID == repID {
				return domain.ErrSelfParent
			}
			parent, err := repo.FindOne(ctx, &domain.SalesRep{ID: *parentID})
			if err != nil {
				return err
			}
			if parent == nil {
				return domain.ErrParentNotFound
			}
			if !parent.Active {
				return domain.ErrInactiveParentRep
			}
			if err := s.checkNoCycle(ctx, repo, repID, *parent); err != nil {
				return err
			}
		}

		return tx.WithContext(ctx).Exec(
			`UPDATE sales_reps SET parent_rep_id = ?, updated_at = ? WHERE id = ?`,
			parentID,
			s.clock.Now(),
			repID,
		).Error
	})
}

// checkNoCycle walks the upline chain from the proposed parent; if the
// walk reaches repID the assignment would close a loop.
func (s *Service) checkNoCycle(ctx context.Context, repo repository.Repository[domain.SalesRep], repID snowflake.ID, parent domain.SalesRep) error {
	current := parent
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		if current.ID == repID {
			return domain.ErrRepCycle
		}
		if !current.IsSubRep() {
			return nil
		}
		next, err := repo.FindOne(ctx, &domain.SalesRep{ID: *current.ParentRepID})
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		current = *next
	}
	return domain.ErrHierarchyTooDeep
}

func (s *Service) Deactivate(ctx context.Context, repID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTrx(tx)

		rep, err := repo.FindOne(ctx, &domain.SalesRep{ID: repID})
		if err != nil {
			return err
		}
		if rep == nil {
			return domain.ErrNotFound
		}

		children, err := repo.Count(ctx, &domain.SalesRep{ParentRepID: &repID, Active: true})
		if err != nil {
			return err
		}
		if children > 0 {
			return domain.ErrHasActiveSubReps
		}

		now := s.clock.Now()
		return tx.WithContext(ctx).Exec(
			`UPDATE sales_reps SET active = ?, updated_at = ? WHERE id = ?`,
			false,
			now,
			repID,
		).Error
	})
}
