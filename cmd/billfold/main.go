package main

import (
	"github.com/billfold/billfold/internal/audit"
	"github.com/billfold/billfold/internal/auth"
	"github.com/billfold/billfold/internal/auth/session"
	"github.com/billfold/billfold/internal/author"
	"github.com/billfold/billfold/internal/card"
	"github.com/billfold/billfold/internal/category"
	"github.com/billfold/billfold/internal/clock"
	"github.com/billfold/billfold/internal/config"
	"github.com/billfold/billfold/internal/invoice"
	"github.com/billfold/billfold/internal/migration"
	"github.com/billfold/billfold/internal/observability"
	"github.com/billfold/billfold/internal/providers/pdf"
	"github.com/billfold/billfold/internal/scheduler"
	"github.com/billfold/billfold/internal/seed"
	"github.com/billfold/billfold/internal/server"
	"github.com/billfold/billfold/internal/subscription"
	"github.com/billfold/billfold/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		migration.Module,
		seed.Module,

		audit.Module,
		auth.Module,
		session.Module,
		author.Module,
		category.Module,
		card.Module,
		invoice.Module,
		subscription.Module,
		pdf.Module,

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
