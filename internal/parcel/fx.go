package parcel

import (
	"github.com/elclub/paquetes/internal/parcel/repository"
	"github.com/elclub/paquetes/internal/parcel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("parcel",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
