package migration

import (
	"github.com/elclub/paquetes/internal/config"
	customerdomain "github.com/elclub/paquetes/internal/customer/domain"
	eventdomain "github.com/elclub/paquetes/internal/event/domain"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	parceldomain "github.com/elclub/paquetes/internal/parcel/domain"
	"github.com/elclub/paquetes/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres deployments (dev sqlite, mysql) rely on the
			// model definitions.
			if err := conn.AutoMigrate(
				&customerdomain.Customer{},
				&parceldomain.Package{},
				&eventdomain.LifecycleEvent{},
				&notifdomain.NotificationRequest{},
				&notifdomain.Template{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultTemplates(conn)
	}),
)
