package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RateConfig carries the fee schedule in centavos (COP minor units).
type RateConfig struct {
	BaseFees        map[string]int64 `mapstructure:"baseFees"`
	StorageDailyFee int64            `mapstructure:"storageDailyFee"`
	Currency        string           `mapstructure:"currency"`
}

func DefaultRateConfig() RateConfig {
	return RateConfig{
		BaseFees: map[string]int64{
			"standard":  150_000,
			"oversized": 250_000,
		},
		StorageDailyFee: 100_000,
		Currency:        "COP",
	}
}

type RateConfigHolder struct {
	current atomic.Value // holds RateConfig
}

func NewRateConfigHolder() (*RateConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("rates")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/paquetes/config") // Volume-mounted config
	v.AddConfigPath("/etc/paquetes")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	// env only for path override (optional)
	v.SetEnvPrefix("PAQUETES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultRateConfig()
		v.SetDefault("rates.baseFees", defaults.BaseFees)
		v.SetDefault("rates.storageDailyFee", defaults.StorageDailyFee)
		v.SetDefault("rates.currency", defaults.Currency)
	}

	var cfg RateConfig
	if err := v.UnmarshalKey("rates", &cfg); err != nil {
		return nil, err
	}
	if err := validateRateConfig(cfg); err != nil {
		return nil, err
	}

	holder := &RateConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated RateConfig
		if err := v.UnmarshalKey("rates", &updated); err != nil {
			log.Printf("[rate-config] reload failed: %v", err)
			return
		}
		if err := validateRateConfig(updated); err != nil {
			log.Printf("[rate-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[rate-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticRateHolder wraps a fixed RateConfig. Used by tests.
func NewStaticRateHolder(cfg RateConfig) *RateConfigHolder {
	holder := &RateConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *RateConfigHolder) Get() RateConfig {
	return h.current.Load().(RateConfig)
}

func validateRateConfig(cfg RateConfig) error {
	if len(cfg.BaseFees) == 0 {
		return errors.New("rates.baseFees cannot be empty")
	}
	if _, ok := cfg.BaseFees["standard"]; !ok {
		return errors.New("rates.baseFees must define the standard category")
	}
	if cfg.StorageDailyFee < 0 {
		return errors.New("rates.storageDailyFee cannot be negative")
	}
	return nil
}
