package payout

import (
	"github.com/apexmed/commission/internal/payout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(service.New),
)
