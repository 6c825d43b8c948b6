package fees

import (
	"strings"
	"time"

	"github.com/elclub/paquetes/internal/config"
)

// CategoryStandard is the fallback applied when a package carries an
// unknown or empty category.
const CategoryStandard = "standard"

// Quote is a fee breakdown in minor units of the configured currency.
type Quote struct {
	BaseFeeCents    int64  `json:"base_fee_cents"`
	StorageFeeCents int64  `json:"storage_fee_cents"`
	TotalCents      int64  `json:"total_cents"`
	Currency        string `json:"currency"`
	StorageDays     int64  `json:"storage_days"`
}

type Calculator struct {
	rates *config.RateConfigHolder
}

func NewCalculator(rates *config.RateConfigHolder) *Calculator {
	return &Calculator{rates: rates}
}

// BaseFee resolves the category rate, falling back to standard for
// categories the schedule does not price.
func (c *Calculator) BaseFee(category string) int64 {
	cfg := c.rates.Get()
	key := strings.ToLower(strings.TrimSpace(category))
	if fee, ok := cfg.BaseFees[key]; ok {
		return fee
	}
	return cfg.BaseFees[CategoryStandard]
}

// StorageFee charges per completed 24h day beyond the first. The first
// day in storage is free, so anything up to 48 hours costs nothing
// extra beyond the start of day two.
func (c *Calculator) StorageFee(receivedAt, now time.Time) int64 {
	days := StorageDays(receivedAt, now)
	billable := days - 1
	if billable < 0 {
		billable = 0
	}
	return billable * c.rates.Get().StorageDailyFee
}

// Quote computes the full fee breakdown for a package received at
// receivedAt, as of now. Calling it twice with the same inputs yields
// the same result.
func (c *Calculator) Quote(category string, receivedAt, now time.Time) Quote {
	base := c.BaseFee(category)
	storage := c.StorageFee(receivedAt, now)
	return Quote{
		BaseFeeCents:    base,
		StorageFeeCents: storage,
		TotalCents:      base + storage,
		Currency:        c.rates.Get().Currency,
		StorageDays:     StorageDays(receivedAt, now),
	}
}

// StorageDays counts completed 24h periods between receipt and now.
// Negative spans count as zero.
func StorageDays(receivedAt, now time.Time) int64 {
	elapsed := now.Sub(receivedAt)
	if elapsed <= 0 {
		return 0
	}
	return int64(elapsed.Hours() / 24)
}
