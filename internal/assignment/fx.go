package assignment

import (
	"github.com/apexmed/commission/internal/assignment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("assignment.service",
	fx.Provide(service.New),
)
