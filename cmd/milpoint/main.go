package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"milpoint/pkg/config"
	"milpoint/pkg/db"
	"milpoint/pkg/logger"
	"milpoint/pkg/redis"
	"milpoint/pkg/server"
	"milpoint/services/point"
	"milpoint/services/soldier"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		fx.Provide(provideSnowflakeNode),
		server.Module,
		soldier.Module,
		point.Module,
		fx.Invoke(migrate),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func migrate(cfg *config.Config, gdb *gorm.DB) error {
	if !cfg.Database.AutoMigrate {
		return nil
	}
	models := append(soldier.Models(), point.Models()...)
	return gdb.AutoMigrate(models...)
}
