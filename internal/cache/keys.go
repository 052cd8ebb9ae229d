package cache

import "time"

const (
	availabilityPrefix = "availability:"

	// ProvidersKey caches the provider listing.
	ProvidersKey = "providers:list"
)

// DayKey is the cache key for one provider's day-availability vector.
func DayKey(providerID string, day time.Time) string {
	return availabilityPrefix + providerID + ":" + day.Format("2006-01-02")
}

// ProviderPrefix covers every cached day of one provider.
func ProviderPrefix(providerID string) string {
	return availabilityPrefix + providerID + ":"
}
