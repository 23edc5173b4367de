package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateMarketplaceConfig(t *testing.T) {
	require.NoError(t, validateMarketplaceConfig(DefaultMarketplaceConfig()))

	cfg := DefaultMarketplaceConfig()
	cfg.DefaultLeadCost = -1
	require.Error(t, validateMarketplaceConfig(cfg))

	cfg = DefaultMarketplaceConfig()
	cfg.AssignmentExpiry = 0
	require.Error(t, validateMarketplaceConfig(cfg))

	cfg = DefaultMarketplaceConfig()
	cfg.TrustScore.Default = 101
	require.Error(t, validateMarketplaceConfig(cfg))
}

func TestStaticMarketplaceConfigHolder(t *testing.T) {
	cfg := DefaultMarketplaceConfig()
	cfg.AssignmentExpiry = time.Hour
	holder := NewStaticMarketplaceConfigHolder(cfg)
	require.Equal(t, time.Hour, holder.Get().AssignmentExpiry)
	require.EqualValues(t, 1, holder.Get().DefaultLeadCost)
}

func TestGetenvDurationFallback(t *testing.T) {
	t.Setenv("LEADHUB_TEST_TTL", "nope")
	require.Equal(t, time.Minute, getenvDuration("LEADHUB_TEST_TTL", time.Minute))
	t.Setenv("LEADHUB_TEST_TTL", "2h")
	require.Equal(t, 2*time.Hour, getenvDuration("LEADHUB_TEST_TTL", time.Minute))
}
