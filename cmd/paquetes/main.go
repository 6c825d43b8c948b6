package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/elclub/paquetes/internal/clock"
	"github.com/elclub/paquetes/internal/config"
	"github.com/elclub/paquetes/internal/customer"
	"github.com/elclub/paquetes/internal/event"
	"github.com/elclub/paquetes/internal/fees"
	"github.com/elclub/paquetes/internal/logger"
	"github.com/elclub/paquetes/internal/migration"
	"github.com/elclub/paquetes/internal/notification"
	obsmetrics "github.com/elclub/paquetes/internal/observability/metrics"
	"github.com/elclub/paquetes/internal/parcel"
	"github.com/elclub/paquetes/internal/providers"
	"github.com/elclub/paquetes/internal/ratelimit"
	"github.com/elclub/paquetes/internal/server"
	"github.com/elclub/paquetes/internal/worker"
	"github.com/elclub/paquetes/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		obsmetrics.Module,

		fees.Module,
		customer.Module,
		event.Module,
		providers.Module,
		notification.Module,
		parcel.Module,
		ratelimit.Module,
		worker.Module,

		server.Module,
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
