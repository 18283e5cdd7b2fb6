package service

import (
	"context"
	"fmt"
	"time"

	commissiondomain "github.com/apexmed/commission/internal/commission/domain"
	"github.com/apexmed/commission/internal/payout/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const runLockTTL = 5 * time.Minute

func (s *Service) GeneratePayouts(ctx context.Context, req domain.GeneratePayoutsRequest) ([]domain.CommissionPayout, error) {
	if !req.PeriodEnd.After(req.PeriodStart) {
		return nil, domain.ErrInvalidPeriod
	}

	if s.locker != nil {
		key := "payout:generate"
		if req.OrgID != 0 {
			key += ":" + req.OrgID.String()
		}
		token, ok, err := s.locker.TryLock(ctx, key, runLockTTL)
		if err != nil {
			// The advisory lock is an optimization; row locking below
			// still prevents double-claiming.
			s.log.Warn("run lock unavailable, relying on row locks", zap.Error(err))
		} else if !ok {
			return nil, domain.ErrRunInProgress
		} else {
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					s.log.Warn("run lock release failed", zap.Error(err))
				}
			}()
		}
	}

	var created []domain.CommissionPayout
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repIDs, err := s.qualifyingReps(ctx, tx, req)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		for _, repID := range repIDs {
			records, err := s.claimableRecords(ctx, tx, req, repID)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				// Already claimed by a concurrent run; nothing left
				// for this rep.
				continue
			}

			var gross int64
			recordIDs := make([]snowflake.ID, 0, len(records))
			for _, record := range records {
				gross += record.CommissionAmount
				recordIDs = append(recordIDs, record.ID)
			}
			deductions := s.deductions(ctx, repID, records)
			net := gross - deductions

			payout := domain.CommissionPayout{
				ID:              s.genID.Generate(),
				OrgID:           records[0].OrgID,
				RepID:           repID,
				PeriodStart:     req.PeriodStart,
				PeriodEnd:       req.PeriodEnd,
				GrossAmount:     gross,
				Deductions:      deductions,
				NetAmount:       net,
				CommissionCount: int64(len(records)),
				Status:          domain.StatusCalculated,
				SummaryData:     summarize(records),
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if err := tx.WithContext(ctx).Create(&payout).Error; err != nil {
				return err
			}

			// Conditional claim: re-verify every row is still
			// unclaimed at update time. A shortfall means another run
			// got there first; the whole run aborts rather than split
			// a rep's records across payouts.
			result := tx.WithContext(ctx).Exec(
				`UPDATE commission_records
				 SET payout_id = ?, status = ?, updated_at = ?
				 WHERE id IN (?) AND payout_id IS NULL AND status = ?`,
				payout.ID,
				commissiondomain.StatusIncludedInPayout,
				now,
				recordIDs,
				commissiondomain.StatusApproved,
			)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected != int64(len(recordIDs)) {
				return fmt.Errorf("%w: claimed %d of %d records for rep %s",
					domain.ErrConcurrentClaim, result.RowsAffected, len(recordIDs), repID)
			}

			created = append(created, payout)
		}
		return nil
	})
	if err != nil {
		s.log.Error("payout generation failed",
			zap.Time("period_start", req.PeriodStart),
			zap.Time("period_end", req.PeriodEnd),
			zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		for _, payout := range created {
			s.metrics.PayoutsGenerated.Inc()
			s.metrics.RecordsClaimed.Add(float64(payout.CommissionCount))
		}
	}
	s.log.Info("payout generation complete", zap.Int("payouts", len(created)))
	return created, nil
}

func (s *Service) qualifyingReps(ctx context.Context, tx *gorm.DB, req domain.GeneratePayoutsRequest) ([]snowflake.ID, error) {
	stmt := tx.WithContext(ctx).
		Model(&commissiondomain.CommissionRecord{}).
		Distinct("rep_id").
		Where("status = ? AND payout_id IS NULL", commissiondomain.StatusApproved).
		Where("created_at >= ? AND created_at < ?", req.PeriodStart, req.PeriodEnd)
	if req.OrgID != 0 {
		stmt = stmt.Where("org_id = ?", req.OrgID)
	}

	var repIDs []snowflake.ID
	if err := stmt.Order("rep_id asc").Pluck("rep_id", &repIDs).Error; err != nil {
		return nil, err
	}
	return repIDs, nil
}

// claimableRecords row-locks one rep's approved, unclaimed records in
// the period so concurrent generation runs serialize per record.
func (s *Service) claimableRecords(ctx context.Context, tx *gorm.DB, req domain.GeneratePayoutsRequest, repID snowflake.ID) ([]commissiondomain.CommissionRecord, error) {
	query := `SELECT * FROM commission_records
		 WHERE rep_id = ? AND status = ? AND payout_id IS NULL
		   AND created_at >= ? AND created_at < ?`
	args := []any{repID, commissiondomain.StatusApproved, req.PeriodStart, req.PeriodEnd}
	if req.OrgID != 0 {
		query += ` AND org_id = ?`
		args = append(args, req.OrgID)
	}
	query += ` ORDER BY created_at ASC, id ASC FOR UPDATE`

	var records []commissiondomain.CommissionRecord
	if err := tx.WithContext(ctx).Raw(query, args...).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// summarize builds the payout's aggregated breakdown: counts by split
// type, distinct orders and the average effective rate.
func summarize(records []commissiondomain.CommissionRecord) datatypes.JSONMap {
	splitCounts := map[string]any{}
	orderIDs := map[snowflake.ID]struct{}{}
	var base, amount int64
	for _, record := range records {
		key := string(record.SplitType)
		count, _ := splitCounts[key].(int64)
		splitCounts[key] = count + 1
		orderIDs[record.OrderID] = struct{}{}
		base += record.BaseAmount
		amount += record.CommissionAmount
	}

	effectiveRate := "0"
	if base > 0 {
		effectiveRate = decimal.NewFromInt(amount).
			Mul(hundredPct).
			Div(decimal.NewFromInt(base)).
			Round(4).
			String()
	}

	orders := make([]any, 0, len(orderIDs))
	for orderID := range orderIDs {
		orders = append(orders, orderID.String())
	}

	return datatypes.JSONMap{
		"count_by_split_type":    splitCounts,
		"distinct_order_count":   len(orderIDs),
		"order_ids":              orders,
		"average_effective_rate": effectiveRate,
	}
}

var hundredPct = decimal.NewFromInt(100)
