package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	notifdomain "github.com/elclub/paquetes/internal/notification/domain"
	notifservice "github.com/elclub/paquetes/internal/notification/service"
	"gorm.io/gorm"
)

// EnsureDefaultTemplates seeds the stock message templates so a fresh
// install can notify customers before anyone customizes anything.
// Existing rows are left untouched.
func EnsureDefaultTemplates(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for name, body := range notifservice.DefaultTemplates() {
			var count int64
			if err := tx.Model(&notifdomain.Template{}).
				Where("name = ?", name).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			tpl := notifdomain.Template{
				ID:      node.Generate(),
				Name:    name,
				Channel: notifdomain.ChannelSMS,
				Body:    body,
				Active:  true,
			}
			if err := tx.Create(&tpl).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
