package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pesantrenhub/sppbill/internal/clock"
	"github.com/pesantrenhub/sppbill/internal/config"
	"github.com/pesantrenhub/sppbill/internal/migration"
	"github.com/pesantrenhub/sppbill/internal/scheduler"
	"github.com/pesantrenhub/sppbill/internal/seed"
	"github.com/pesantrenhub/sppbill/internal/server"
	"github.com/pesantrenhub/sppbill/pkg/db"
	"github.com/pesantrenhub/sppbill/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Schema first, then the domain surface
		migration.Module,
		fx.Invoke(seed.EnsureFeeSettings),

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
