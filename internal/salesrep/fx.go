package salesrep

import (
	"github.com/apexmed/commission/internal/salesrep/service"
	"go.uber.org/fx"
)

var Module = fx.Module("salesrep.service",
	fx.Provide(service.New),
)
