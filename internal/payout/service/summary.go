package service

import (
	"context"

	"github.com/apexmed/commission/internal/payout/domain"
	"github.com/apexmed/commission/pkg/db/option"
)

func (s *Service) GetPayoutSummary(ctx context.Context, req domain.GeneratePayoutsRequest) (domain.PayoutSummary, error) {
	if !req.PeriodEnd.After(req.PeriodStart) {
		return domain.PayoutSummary{}, domain.ErrInvalidPeriod
	}

	// A zero OrgID leaves the filter unscoped across tenants.
	payouts, err := s.payouts.Find(ctx, &domain.CommissionPayout{OrgID: req.OrgID},
		option.ApplyOperator(option.Condition{Field: "period_start", Operator: option.GTE, Value: req.PeriodStart}),
		option.ApplyOperator(option.Condition{Field: "period_end", Operator: option.LTE, Value: req.PeriodEnd}),
		option.WithSortBy(option.QuerySortBy{Field: "rep_id", Allow: map[string]bool{"rep_id": true}}),
	)
	if err != nil {
		return domain.PayoutSummary{}, err
	}

	summary := domain.PayoutSummary{
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		ByStatus:    map[string]domain.SummaryTotals{},
	}

	repIndex := map[int64]int{}
	for _, payout := range payouts {
		summary.Totals.Count++
		summary.Totals.Gross += payout.GrossAmount
		summary.Totals.Deductions += payout.Deductions
		summary.Totals.Net += payout.NetAmount

		byStatus := summary.ByStatus[string(payout.Status)]
		byStatus.Count++
		byStatus.Gross += payout.GrossAmount
		byStatus.Deductions += payout.Deductions
		byStatus.Net += payout.NetAmount
		summary.ByStatus[string(payout.Status)] = byStatus

		idx, ok := repIndex[int64(payout.RepID)]
		if !ok {
			idx = len(summary.ByRep)
			repIndex[int64(payout.RepID)] = idx
			summary.ByRep = append(summary.ByRep, domain.RepSummary{RepID: payout.RepID})
		}
		summary.ByRep[idx].Count++
		summary.ByRep[idx].Gross += payout.GrossAmount
		summary.ByRep[idx].Deductions += payout.Deductions
		summary.ByRep[idx].Net += payout.NetAmount
	}

	return summary, nil
}
