package service

import (
	"context"
	"fmt"
	"strings"

	assignmentdomain "github.com/apexmed/commission/internal/assignment/domain"
	catalogdomain "github.com/apexmed/commission/internal/catalog/domain"
	"github.com/apexmed/commission/internal/clock"
	"github.com/apexmed/commission/internal/commission/domain"
	obsmetrics "github.com/apexmed/commission/internal/observability/metrics"
	ruledomain "github.com/apexmed/commission/internal/rule/domain"
	"github.com/apexmed/commission/pkg/db/option"
	"github.com/apexmed/commission/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Rules       ruledomain.Service
	Assignments assignmentdomain.Service
	Metrics     *obsmetrics.EngineMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	rules       ruledomain.Service
	assignments assignmentdomain.Service
	metrics     *obsmetrics.EngineMetrics

	orders  repository.Repository[catalogdomain.Order]
	records repository.Repository[domain.CommissionRecord]
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("commission.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		rules:       p.Rules,
		assignments: p.Assignments,
		metrics:     p.Metrics,
		orders:      repository.ProvideStore[catalogdomain.Order](p.DB),
		records:     repository.ProvideStore[domain.CommissionRecord](p.DB),
	}
}

func (s *Service) ProcessOrder(ctx context.Context, orderID snowflake.ID) error {
	order, resolved, err := s.prepare(ctx, orderID)
	if err != nil {
		return err
	}
	if resolved == nil {
		return nil
	}

	records, err := s.buildRecords(ctx, *order, *resolved)
	if err != nil {
		return fmt.Errorf("commission order %s: %w", orderID, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.records.WithTrx(tx).BatchCreate(ctx, records)
	})
	if err != nil {
		s.log.Error("order commissioning failed",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		return fmt.Errorf("commission order %s: %w", orderID, err)
	}

	s.countCreated(records)
	return nil
}

func (s *Service) RecalculateOrder(ctx context.Context, orderID snowflake.ID) error {
	order, resolved, err := s.prepare(ctx, orderID)
	if err != nil {
		return err
	}

	var records []*domain.CommissionRecord
	if resolved != nil {
		records, err = s.buildRecords(ctx, *order, *resolved)
		if err != nil {
			return fmt.Errorf("recalculate order %s: %w", orderID, err)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only pending records are replaced. Approved, claimed and
		// paid rows belong to the payout pipeline and stay untouched.
		if err := tx.WithContext(ctx).
			Where("order_id = ? AND status = ?", orderID, domain.StatusPending).
			Delete(&domain.CommissionRecord{}).Error; err != nil {
			return err
		}
		return s.records.WithTrx(tx).BatchCreate(ctx, records)
	})
	if err != nil {
		s.log.Error("order recalculation failed",
			zap.String("order_id", orderID.String()),
			zap.Error(err))
		return fmt.Errorf("recalculate order %s: %w", orderID, err)
	}

	s.countCreated(records)
	return nil
}

func (s *Service) ApproveOrder(ctx context.Context, orderID snowflake.ID, approvedBy string) error {
	approvedBy = strings.TrimSpace(approvedBy)
	if approvedBy == "" {
		return domain.ErrInvalidApprover
	}

	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.WithContext(ctx).Exec(
			`UPDATE commission_records
			 SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
			 WHERE order_id = ? AND status = ?`,
			domain.StatusApproved,
			approvedBy,
			now,
			now,
			orderID,
			domain.StatusPending,
		).Error
	})
}

func (s *Service) ListByOrder(ctx context.Context, orderID snowflake.ID, limit int) ([]domain.CommissionRecord, error) {
	rows, err := s.records.Find(ctx, &domain.CommissionRecord{OrderID: orderID},
		option.WithSortBy(option.QuerySortBy{Field: "id", Allow: map[string]bool{"id": true}}),
		option.WithLimit(limit),
	)
	if err != nil {
		return nil, err
	}

	records := make([]domain.CommissionRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, *row)
	}
	return records, nil
}

// prepare loads the order and resolves its rep. A nil ResolvedRep
// means the order is skipped from commissioning (logged, not an
// error).
func (s *Service) prepare(ctx context.Context, orderID snowflake.ID) (*catalogdomain.Order, *assignmentdomain.ResolvedRep, error) {
	order, err := s.orders.FindOne(ctx, &catalogdomain.Order{ID: orderID})
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, domain.ErrOrderNotFound
	}
	if order.Status != catalogdomain.OrderStatusFinalized {
		return nil, nil, domain.ErrOrderNotFinal
	}

	resolved, err := s.assignments.ResolveRep(ctx, *order)
	if err != nil {
		return nil, nil, err
	}
	if resolved == nil {
		s.log.Warn("no resolvable sales rep, order skipped",
			zap.String("order_id", orderID.String()))
		if s.metrics != nil {
			s.metrics.OrdersSkipped.WithLabelValues("no_rep").Inc()
		}
		return order, nil, nil
	}
	return order, resolved, nil
}

// buildRecords computes the full record set for an order against the
// current rules and rep resolution. Pure reads; persistence happens in
// the caller's transaction. A rule superseded between the read here and
// the insert can leave records pointing at a freshly deactivated rule
// row; rule rows are versioned and never rewritten, so the reference
// stays a faithful snapshot of the rate that was applied.
func (s *Service) buildRecords(ctx context.Context, order catalogdomain.Order, resolved assignmentdomain.ResolvedRep) ([]*domain.CommissionRecord, error) {
	var items []catalogdomain.OrderItem
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rep := resolved.Rep
	var records []*domain.CommissionRecord

	for _, item := range items {
		line, err := s.lineContext(ctx, order, item)
		if err != nil {
			return nil, err
		}

		matched, err := s.rules.Resolve(ctx, line, order.OrgID)
		if err != nil {
			return nil, err
		}
		if matched == nil {
			s.log.Warn("no applicable commission rule, item skipped",
				zap.String("order_id", order.ID.String()),
				zap.String("order_item_id", item.ID.String()))
			if s.metrics != nil {
				s.metrics.ItemsSkipped.WithLabelValues("no_rule").Inc()
			}
			continue
		}

		// An assignment-level override replaces the rule's rate
		// entirely for this computation.
		rate := matched.PercentageRate
		if resolved.OverrideRate != nil {
			rate = *resolved.OverrideRate
		}
		gross := commissionAmount(item.LineTotal, rate)

		direct := domain.CommissionRecord{
			ID:               s.genID.Generate(),
			OrgID:            order.OrgID,
			OrderID:          order.ID,
			OrderItemID:      item.ID,
			RepID:            rep.ID,
			RuleID:           matched.ID,
			BaseAmount:       item.LineTotal,
			CommissionAmount: gross,
			PercentageRate:   rate,
			SplitType:        domain.SplitDirect,
			Status:           domain.StatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		records = append(records, &direct)
		if rep.IsSubRep() {
			split := Split(gross, rep.SubRepParentSharePercentage)
			direct.SplitType = domain.SplitSubRepShare
			direct.CommissionAmount = split.SubRepShare

			// Zero-amount legs are still written so the audit trail
			// records the split decision.
			subRepID := rep.ID
			records = append(records, &domain.CommissionRecord{
				ID:               s.genID.Generate(),
				OrgID:            order.OrgID,
				OrderID:          order.ID,
				OrderItemID:      item.ID,
				RepID:            *rep.ParentRepID,
				ParentRepID:      &subRepID,
				RuleID:           matched.ID,
				BaseAmount:       item.LineTotal,
				CommissionAmount: split.ParentShare,
				PercentageRate:   rate,
				SplitType:        domain.SplitParentShare,
				Status:           domain.StatusPending,
				CreatedAt:        now,
				UpdatedAt:        now,
			})
		}
	}

	return records, nil
}

func (s *Service) countCreated(records []*domain.CommissionRecord) {
	if s.metrics == nil {
		return
	}
	for _, record := range records {
		s.metrics.CommissionsCreated.WithLabelValues(string(record.SplitType)).Inc()
	}
}

func (s *Service) lineContext(ctx context.Context, order catalogdomain.Order, item catalogdomain.OrderItem) (ruledomain.LineContext, error) {
	line := ruledomain.LineContext{
		ProductID:  item.ProductID,
		Category:   item.Category,
		FacilityID: order.FacilityID,
	}

	var products []catalogdomain.Product
	if err := s.db.WithContext(ctx).
		Where("id = ?", item.ProductID).
		Limit(1).
		Find(&products).Error; err != nil {
		return ruledomain.LineContext{}, err
	}
	if len(products) == 1 {
		line.ManufacturerID = products[0].ManufacturerID
		if line.Category == "" {
			line.Category = products[0].Category
		}
	}

	return line, nil
}
