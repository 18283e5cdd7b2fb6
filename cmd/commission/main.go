package main

import (
	"github.com/apexmed/commission/internal/clock"
	"github.com/apexmed/commission/internal/config"
	"github.com/apexmed/commission/internal/logger"
	"github.com/apexmed/commission/internal/migration"
	obsmetrics "github.com/apexmed/commission/internal/observability/metrics"
	"github.com/apexmed/commission/internal/server"
	"github.com/apexmed/commission/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,
		obsmetrics.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
