package metrics

import (
	"github.com/elclub/paquetes/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("metrics",
	fx.Provide(func(cfg config.Config) *Metrics {
		return WithConfig(Config{
			ServiceName: cfg.AppName,
			Environment: cfg.Environment,
		})
	}),
)
