package notification

import (
	"github.com/elclub/paquetes/internal/notification/repository"
	"github.com/elclub/paquetes/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
