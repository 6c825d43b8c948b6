package event

import (
	"github.com/elclub/paquetes/internal/event/repository"
	"github.com/elclub/paquetes/internal/event/service"
	"go.uber.org/fx"
)

var Module = fx.Module("event",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
