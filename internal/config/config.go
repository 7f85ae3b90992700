package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
// Keys match the environment variable names lowercased (MIN_PRICE -> min_price).
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`
	Port     int    `mapstructure:"port"`

	MinPriceRaw    string   `mapstructure:"min_price"`
	MaxPriceRaw    string   `mapstructure:"max_price"`
	MinPrice       *float64 `mapstructure:"-"`
	MaxPrice       *float64 `mapstructure:"-"`
	LocationIDsRaw string   `mapstructure:"location_ids"`
	CategoryIDsRaw string   `mapstructure:"category_ids"`
	LocationIDs    []string `mapstructure:"-"`
	CategoryIDs    []string `mapstructure:"-"`

	SpreadsheetKey  string `mapstructure:"spreadsheet_key"`
	ClientEmail     string `mapstructure:"client_email"`
	PrivateKey      string `mapstructure:"private_key" json:"-"`
	SheetIndex      int    `mapstructure:"sheet_index"`
	SheetGUIDColumn int    `mapstructure:"sheet_guid_column"`
	SheetGUIDMaxRow int    `mapstructure:"sheet_guid_max_row"`
	SheetsEndpoint  string `mapstructure:"sheets_endpoint"`

	EngineMin         int  `mapstructure:"engine_min"`
	EngineMax         int  `mapstructure:"engine_max"`
	DedupeWithinRun   bool `mapstructure:"dedupe_within_run"`
	FetchConcurrency  int  `mapstructure:"fetch_concurrency"`
	AppendConcurrency int  `mapstructure:"append_concurrency"`

	RunIntervalSeconds int64         `mapstructure:"run_interval"`
	RunInterval        time.Duration `mapstructure:"-"`

	ListingsSource         string `mapstructure:"listings_source"`
	ListingsBaseURL        string `mapstructure:"listings_base_url"`
	ListingsTimeoutSeconds int64  `mapstructure:"listings_timeout_seconds"`
	ListingsRequestDelayMs int    `mapstructure:"listings_request_delay_ms"`
	ListingsUserAgent      string `mapstructure:"listings_user_agent"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	StorageTTLSeconds      int64         `mapstructure:"storage_ttl_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	StorageTTL             time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "kijiji-ledger")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("port", 5000)

	v.SetDefault("min_price", "")
	v.SetDefault("max_price", "")
	v.SetDefault("location_ids", "")
	v.SetDefault("category_ids", "")

	v.SetDefault("spreadsheet_key", "")
	v.SetDefault("client_email", "")
	v.SetDefault("private_key", "")
	v.SetDefault("sheet_index", 1)
	v.SetDefault("sheet_guid_column", 9)
	v.SetDefault("sheet_guid_max_row", 1000)
	v.SetDefault("sheets_endpoint", "")

	v.SetDefault("engine_min", 500)
	v.SetDefault("engine_max", 1100)
	v.SetDefault("dedupe_within_run", false)
	v.SetDefault("fetch_concurrency", 0)
	v.SetDefault("append_concurrency", 0)
	v.SetDefault("run_interval", 0) // seconds, 0 = trigger only

	v.SetDefault("listings_source", "kijiji")
	v.SetDefault("listings_base_url", "https://www.kijiji.ca")
	v.SetDefault("listings_timeout_seconds", 15)
	v.SetDefault("listings_request_delay_ms", 250)
	v.SetDefault("listings_user_agent", "Mozilla/5.0 (compatible; kijiji-ledger/1.0)")

	v.SetDefault("storage_type", "none")
	v.SetDefault("bbolt_path", "./data/guids.db")
	v.SetDefault("storage_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.SetDefault("publishers_file", "")
}

func (cfg *Config) finalize() error {
	var err error
	if cfg.MinPrice, err = parseOptionalPrice("min_price", cfg.MinPriceRaw); err != nil {
		return err
	}
	if cfg.MaxPrice, err = parseOptionalPrice("max_price", cfg.MaxPriceRaw); err != nil {
		return err
	}
	if cfg.MinPrice != nil && cfg.MaxPrice != nil && *cfg.MinPrice > *cfg.MaxPrice {
		return fmt.Errorf("invalid price bounds: min_price %v exceeds max_price %v", *cfg.MinPrice, *cfg.MaxPrice)
	}

	cfg.LocationIDs = SplitList(cfg.LocationIDsRaw)
	cfg.CategoryIDs = SplitList(cfg.CategoryIDsRaw)

	if strings.TrimSpace(cfg.SpreadsheetKey) == "" {
		return fmt.Errorf("spreadsheet_key is required")
	}
	if strings.TrimSpace(cfg.ClientEmail) == "" {
		return fmt.Errorf("client_email is required")
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return fmt.Errorf("private_key is required")
	}
	// Hosted env vars often carry the PEM with escaped newlines.
	cfg.PrivateKey = strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")

	if cfg.SheetIndex <= 0 {
		return fmt.Errorf("invalid sheet_index (must be 1-based positive)")
	}
	if cfg.SheetGUIDColumn <= 0 {
		return fmt.Errorf("invalid sheet_guid_column (must be 1-based positive)")
	}
	if cfg.SheetGUIDMaxRow <= 0 {
		return fmt.Errorf("invalid sheet_guid_max_row (must be positive)")
	}
	if cfg.EngineMin > cfg.EngineMax {
		return fmt.Errorf("invalid engine band: engine_min %d exceeds engine_max %d", cfg.EngineMin, cfg.EngineMax)
	}
	if cfg.FetchConcurrency < 0 || cfg.AppendConcurrency < 0 {
		return fmt.Errorf("invalid concurrency (must be zero or positive)")
	}

	if cfg.RunIntervalSeconds < 0 {
		return fmt.Errorf("invalid run_interval (must be zero or positive seconds)")
	}
	cfg.RunInterval = time.Duration(cfg.RunIntervalSeconds) * time.Second

	if cfg.ListingsTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid listings_timeout_seconds (must be positive seconds)")
	}

	if cfg.StorageTTLSeconds <= 0 {
		return fmt.Errorf("invalid storage_ttl_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.StorageTTL = time.Duration(cfg.StorageTTLSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return nil
}

// SplitList splits a comma-separated identifier list, dropping blank entries.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseOptionalPrice(key, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v < 0 {
		return nil, fmt.Errorf("invalid %s %q (must not be negative)", key, raw)
	}
	return &v, nil
}
