package rule

import (
	"github.com/apexmed/commission/internal/rule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rule.service",
	fx.Provide(service.New),
)
