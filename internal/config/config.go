// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	RPCURL           string  `mapstructure:"rpc_url"`
	PostgresURL      string  `mapstructure:"postgres_url"`
	WebhookAddr      string  `mapstructure:"webhook_addr"`
	LaunchFeedURL    string  `mapstructure:"launch_feed_url"`
	WalletSecretName string  `mapstructure:"wallet_secret_name"`
	BuyAmountSOL     float64 `mapstructure:"buy_amount_sol"`
	PriorityFeeSOL   float64 `mapstructure:"priority_fee_sol"`
	TipLamports      uint64  `mapstructure:"tip_lamports"`
	MinLiquiditySOL  float64 `mapstructure:"min_liquidity_sol"`
	MinVolumeSOL     float64 `mapstructure:"min_volume_sol"`
	MaxAgeMinutes    int     `mapstructure:"max_age_minutes"`

	// Exit thresholds; zero values disable the corresponding rule.
	TakeProfitX []float64 `mapstructure:"take_profit_x"`
	StopLoss    float64   `mapstructure:"stop_loss"`

	DebugLogging bool   `mapstructure:"debug_logging"`
	LogFile      string `mapstructure:"log_file"`
}

const (
	DefaultBuyAmountSOL   = 0.003
	DefaultPriorityFeeSOL = 0.000011
	DefaultTipLamports    = 1_000_000
	DefaultWebhookAddr    = ":8080"
	DefaultLaunchFeedURL  = "https://frontend-api.pump.fun"
	DefaultWalletSecret   = "trader_keypair"
	DefaultLogFile        = "sniper.log"
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"buy_amount_sol":     DefaultBuyAmountSOL,
		"priority_fee_sol":   DefaultPriorityFeeSOL,
		"tip_lamports":       DefaultTipLamports,
		"webhook_addr":       DefaultWebhookAddr,
		"launch_feed_url":    DefaultLaunchFeedURL,
		"wallet_secret_name": DefaultWalletSecret,
		"log_file":           DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PUMPSNIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("missing rpc_url in configuration")
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return errors.New("invalid RPC URL protocol")
	}
	if cfg.LaunchFeedURL != "" {
		if err := validateURL(cfg.LaunchFeedURL, "http"); err != nil {
			return errors.New("invalid launch feed URL protocol")
		}
	}
	if cfg.BuyAmountSOL <= 0 {
		return errors.New("invalid buy_amount_sol")
	}
	if cfg.PriorityFeeSOL < 0 {
		return errors.New("invalid priority_fee_sol")
	}
	if cfg.MaxAgeMinutes < 0 {
		return errors.New("invalid max_age_minutes")
	}
	if cfg.StopLoss != 0 && (cfg.StopLoss < 0 || cfg.StopLoss >= 1) {
		return errors.New("stop_loss must be in (0, 1)")
	}
	for _, x := range cfg.TakeProfitX {
		if x <= 1 {
			return errors.New("take_profit_x entries must exceed 1")
		}
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}
