package service

import (
	"context"

	"github.com/apexmed/commission/internal/clock"
	commissiondomain "github.com/apexmed/commission/internal/commission/domain"
	"github.com/apexmed/commission/internal/config"
	obsmetrics "github.com/apexmed/commission/internal/observability/metrics"
	"github.com/apexmed/commission/internal/payout/domain"
	paymentdomain "github.com/apexmed/commission/internal/providers/payment/domain"
	"github.com/apexmed/commission/internal/runlock"
	"github.com/apexmed/commission/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Gateway    paymentdomain.Gateway     `optional:"true"`
	Locker     *runlock.Locker           `optional:"true"`
	Deductions domain.DeductionPolicy    `optional:"true"`
	Metrics    *obsmetrics.EngineMetrics `optional:"true"`
}

type Service struct {
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	gateway    paymentdomain.Gateway
	locker     *runlock.Locker
	deductions domain.DeductionPolicy
	metrics    *obsmetrics.EngineMetrics

	payouts repository.Repository[domain.CommissionPayout]
}

func New(p Params) domain.Service {
	deductions := p.Deductions
	if deductions == nil {
		deductions = ZeroDeductions
	}
	return &Service{
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("payout.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		gateway:    p.Gateway,
		locker:     p.Locker,
		deductions: deductions,
		metrics:    p.Metrics,
		payouts:    repository.ProvideStore[domain.CommissionPayout](p.DB),
	}
}

// ZeroDeductions is the default deduction policy: withhold nothing.
func ZeroDeductions(ctx context.Context, repID snowflake.ID, records []commissiondomain.CommissionRecord) int64 {
	return 0
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.CommissionPayout, error) {
	payout, err := s.payouts.FindOne(ctx, &domain.CommissionPayout{ID: id})
	if err != nil {
		return domain.CommissionPayout{}, err
	}
	if payout == nil {
		return domain.CommissionPayout{}, domain.ErrPayoutNotFound
	}
	return *payout, nil
}

// loadPayoutForUpdate row-locks one payout inside a transaction.
func (s *Service) loadPayoutForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.CommissionPayout, error) {
	var payouts []domain.CommissionPayout
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM commission_payouts WHERE id = ? FOR UPDATE`,
		id,
	).Scan(&payouts).Error
	if err != nil {
		return nil, err
	}
	if len(payouts) == 0 {
		return nil, nil
	}
	return &payouts[0], nil
}
