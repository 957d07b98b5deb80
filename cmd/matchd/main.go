package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/howweplan/matchd/internal/agent"
	"github.com/howweplan/matchd/internal/audit"
	"github.com/howweplan/matchd/internal/clock"
	"github.com/howweplan/matchd/internal/config"
	"github.com/howweplan/matchd/internal/conversation"
	"github.com/howweplan/matchd/internal/events"
	"github.com/howweplan/matchd/internal/logger"
	"github.com/howweplan/matchd/internal/match"
	"github.com/howweplan/matchd/internal/migration"
	"github.com/howweplan/matchd/internal/observability/tracing"
	"github.com/howweplan/matchd/internal/oversight"
	"github.com/howweplan/matchd/internal/request"
	"github.com/howweplan/matchd/internal/scheduler"
	"github.com/howweplan/matchd/internal/scoring"
	"github.com/howweplan/matchd/internal/seed"
	"github.com/howweplan/matchd/internal/server"
	"github.com/howweplan/matchd/internal/trigger"
	"github.com/howweplan/matchd/internal/verification"
	"github.com/howweplan/matchd/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if !cfg.IsProduction() {
				return seed.EnsureDevData(conn)
			}
			return nil
		}),
		tracing.Module,
		events.Module,
		conversation.Module,
		scoring.Module,
		agent.Module,
		request.Module,
		audit.Module,
		match.Module,
		verification.Module,
		trigger.Module,
		oversight.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}
