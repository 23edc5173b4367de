package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// MarketplaceConfig holds operator-tunable marketplace policy.
type MarketplaceConfig struct {
	DefaultLeadCost  int64         `mapstructure:"defaultLeadCost"`
	AssignmentExpiry time.Duration `mapstructure:"assignmentExpiry"`
	TrustScore       TrustScore    `mapstructure:"trustScore"`
}

type TrustScore struct {
	Min     int `mapstructure:"min"`
	Max     int `mapstructure:"max"`
	Default int `mapstructure:"default"`
}

func DefaultMarketplaceConfig() MarketplaceConfig {
	return MarketplaceConfig{
		DefaultLeadCost:  1,
		AssignmentExpiry: 72 * time.Hour,
		TrustScore:       TrustScore{Min: 0, Max: 100, Default: 50},
	}
}

type MarketplaceConfigHolder struct {
	current atomic.Value // holds MarketplaceConfig
}

// NewStaticMarketplaceConfigHolder returns a holder that never reloads.
func NewStaticMarketplaceConfigHolder(cfg MarketplaceConfig) *MarketplaceConfigHolder {
	holder := &MarketplaceConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewMarketplaceConfigHolder() (*MarketplaceConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("marketplace")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/leadhub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultMarketplaceConfig()
	v.SetDefault("marketplace.defaultLeadCost", defaults.DefaultLeadCost)
	v.SetDefault("marketplace.assignmentExpiry", defaults.AssignmentExpiry)
	v.SetDefault("marketplace.trustScore.min", defaults.TrustScore.Min)
	v.SetDefault("marketplace.trustScore.max", defaults.TrustScore.Max)
	v.SetDefault("marketplace.trustScore.default", defaults.TrustScore.Default)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg MarketplaceConfig
	if err := v.UnmarshalKey("marketplace", &cfg); err != nil {
		return nil, err
	}
	if err := validateMarketplaceConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticMarketplaceConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated MarketplaceConfig
		if err := v.UnmarshalKey("marketplace", &updated); err != nil {
			log.Printf("[marketplace-config] reload failed: %v", err)
			return
		}
		if err := validateMarketplaceConfig(updated); err != nil {
			log.Printf("[marketplace-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[marketplace-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *MarketplaceConfigHolder) Get() MarketplaceConfig {
	return h.current.Load().(MarketplaceConfig)
}

func validateMarketplaceConfig(cfg MarketplaceConfig) error {
	if cfg.DefaultLeadCost < 0 {
		return errors.New("marketplace.defaultLeadCost cannot be negative")
	}
	if cfg.AssignmentExpiry <= 0 {
		return errors.New("marketplace.assignmentExpiry must be positive")
	}
	if cfg.TrustScore.Min > cfg.TrustScore.Max {
		return errors.New("marketplace.trustScore.min must not exceed max")
	}
	if cfg.TrustScore.Default < cfg.TrustScore.Min || cfg.TrustScore.Default > cfg.TrustScore.Max {
		return errors.New("marketplace.trustScore.default out of range")
	}
	return nil
}
