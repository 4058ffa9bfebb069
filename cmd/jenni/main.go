package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shinertx/jenni-shopify/internal/cache"
	"github.com/shinertx/jenni-shopify/internal/clock"
	"github.com/shinertx/jenni-shopify/internal/config"
	"github.com/shinertx/jenni-shopify/internal/db"
	"github.com/shinertx/jenni-shopify/internal/decision"
	"github.com/shinertx/jenni-shopify/internal/dispatch"
	"github.com/shinertx/jenni-shopify/internal/eligibility"
	"github.com/shinertx/jenni-shopify/internal/jenni"
	"github.com/shinertx/jenni-shopify/internal/logger"
	"github.com/shinertx/jenni-shopify/internal/ranker"
	"github.com/shinertx/jenni-shopify/internal/server"
	"github.com/shinertx/jenni-shopify/internal/shopstore"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			return conn.AutoMigrate(&shopstore.Shop{}, &dispatch.Job{})
		}),
		cache.Module,
		jenni.Module,
		eligibility.Module,
		ranker.Module,
		decision.Module,
		dispatch.Module,
		shopstore.Module,
		server.Module,
	)
	app.Run()
}
