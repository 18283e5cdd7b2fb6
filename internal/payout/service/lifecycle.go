package service

import (
	"context"
	"strings"
	"time"

	commissiondomain "github.com/apexmed/commission/internal/commission/domain"
	"github.com/apexmed/commission/internal/payout/domain"
	paymentdomain "github.com/apexmed/commission/internal/providers/payment/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) Approve(ctx context.Context, id snowflake.ID, approvedBy string) error {
	approvedBy = strings.TrimSpace(approvedBy)
	if approvedBy == "" {
		return domain.ErrInvalidApprover
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payout, err := s.loadPayoutForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payout == nil {
			return domain.ErrPayoutNotFound
		}
		if payout.Status != domain.StatusCalculated {
			return domain.ErrInvalidStateTransition
		}

		now := s.clock.Now()
		return tx.WithContext(ctx).Exec(
			`UPDATE commission_payouts
			 SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
			 WHERE id = ?`,
			domain.StatusApproved,
			approvedBy,
			now,
			now,
			id,
		).Error
	})
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payout, err := s.loadPayoutForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payout == nil {
			return domain.ErrPayoutNotFound
		}
		if payout.Status != domain.StatusCalculated && payout.Status != domain.StatusApproved {
			return domain.ErrInvalidStateTransition
		}

		now := s.clock.Now()
		reason = strings.TrimSpace(reason)
		if err := tx.WithContext(ctx).Exec(
			`UPDATE commission_payouts
			 SET status = ?, cancel_reason = ?, updated_at = ?
			 WHERE id = ?`,
			domain.StatusCancelled,
			reason,
			now,
			id,
		).Error; err != nil {
			return err
		}

		// Unclaim the linked records so they stay eligible for a
		// future run instead of pointing at a dead payout.
		return tx.WithContext(ctx).Exec(
			`UPDATE commission_records
			 SET status = ?, payout_id = NULL, updated_at = ?
			 WHERE payout_id = ? AND status = ?`,
			commissiondomain.StatusApproved,
			now,
			id,
			commissiondomain.StatusIncludedInPayout,
		).Error
	})
}

// ProcessPayments pays each payout independently. One payout's
// failure is captured in its result entry and never rolls back or
// blocks the others.
func (s *Service) ProcessPayments(ctx context.Context, ids []snowflake.ID, method string) []domain.PaymentResult {
	results := make([]domain.PaymentResult, 0, len(ids))
	for _, id := range ids {
		result := domain.PaymentResult{PayoutID: id}

		reference, err := s.payOne(ctx, id, method)
		if err != nil {
			result.Error = err.Error()
			if s.metrics != nil {
				s.metrics.PaymentsProcessed.WithLabelValues("failure").Inc()
			}
			s.log.Warn("payout payment failed",
				zap.String("payout_id", id.String()),
				zap.Error(err))
		} else {
			result.Success = true
			result.Reference = reference
			if s.metrics != nil {
				s.metrics.PaymentsProcessed.WithLabelValues("success").Inc()
			}
		}
		results = append(results, result)
	}
	return results
}

func (s *Service) payOne(ctx context.Context, id snowflake.ID, method string) (string, error) {
	if s.gateway == nil {
		return "", domain.ErrNoGateway
	}

	payout, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if payout.Status != domain.StatusApproved {
		return "", domain.ErrInvalidStateTransition
	}

	timeout := time.Duration(s.cfg.PaymentTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	chargeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reference, err := s.gateway.Charge(chargeCtx, paymentdomain.Charge{
		PayoutID:    payout.ID,
		RepID:       payout.RepID,
		AmountCents: payout.NetAmount,
		Method:      method,
	})
	if err != nil {
		return "", err
	}

	if err := s.markAsPaid(ctx, id, reference, method); err != nil {
		return "", err
	}
	return reference, nil
}

// markAsPaid finalizes a paid payout and cascades the terminal paid
// status onto every linked commission record.
func (s *Service) markAsPaid(ctx context.Context, id snowflake.ID, reference, method string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payout, err := s.loadPayoutForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if payout == nil {
			return domain.ErrPayoutNotFound
		}
		if payout.Status != domain.StatusApproved {
			return domain.ErrInvalidStateTransition
		}

		now := s.clock.Now()
		if err := tx.WithContext(ctx).Exec(
			`UPDATE commission_payouts
			 SET status = ?, payment_reference = ?, payment_method = ?, paid_at = ?, updated_at = ?
			 WHERE id = ?`,
			domain.StatusPaid,
			reference,
			method,
			now,
			now,
			id,
		).Error; err != nil {
			return err
		}

		return tx.WithContext(ctx).Exec(
			`UPDATE commission_records
			 SET status = ?, updated_at = ?
			 WHERE payout_id = ? AND status = ?`,
			commissiondomain.StatusPaid,
			now,
			id,
			commissiondomain.StatusIncludedInPayout,
		).Error
	})
}
