package providers

import (
	"github.com/elclub/paquetes/internal/clock"
	"github.com/elclub/paquetes/internal/config"
	"github.com/elclub/paquetes/internal/providers/email"
	"github.com/elclub/paquetes/internal/providers/sms"
	"go.uber.org/fx"
)

func newSMSProvider(cfg config.Config) sms.ChannelProvider {
	return sms.NewLiwaProvider(sms.LiwaConfig{
		BaseURL:   cfg.SMSAPIURL,
		Account:   cfg.SMSAccount,
		Password:  cfg.SMSPassword,
		FromName:  cfg.SMSFromName,
		CostCents: cfg.SMSCostCents,
	})
}

func newTokenCache(cfg config.Config, clk clock.Clock) *sms.TokenCache {
	return sms.NewTokenCache(cfg.SMSTokenTTL, clk)
}

func newEmailProvider(cfg config.Config) email.Provider {
	if cfg.SMTPHost == "" {
		return &email.NoOpProvider{}
	}
	return email.NewSMTP(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

var Module = fx.Module("providers",
	fx.Provide(
		newSMSProvider,
		newTokenCache,
		newEmailProvider,
	),
)
