package payment

import (
	"github.com/apexmed/commission/internal/config"
	"github.com/apexmed/commission/internal/providers/payment/domain"
	"github.com/apexmed/commission/internal/providers/payment/manual"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.payment",
	fx.Provide(
		func() *Registry {
			return NewRegistry(manual.New())
		},
		func(cfg config.Config, registry *Registry) (domain.Gateway, error) {
			return registry.Gateway(cfg.PaymentProvider)
		},
	),
)
