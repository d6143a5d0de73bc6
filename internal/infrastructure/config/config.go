package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Sync      SyncConfig
	Reconcile ReconcileConfig
	Advisor   AdvisorConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AccountConfig holds one marketplace seller account's credentials and limits
type AccountConfig struct {
	BaseURL  string
	Username string
	Password string
	// CatalogRPS and OrderRPS are the documented request budgets for the
	// account's endpoint classes
	CatalogRPS float64
	OrderRPS   float64
	Burst      int
	// WarehouseCode is the local warehouse the inventory bridge writes to
	WarehouseCode string
}

// SyncConfig holds marketplace synchronization settings
type SyncConfig struct {
	Main AccountConfig
	FBE  AccountConfig

	PageSize     int
	SubBatchSize int

	// Page caps and timeouts per mode. Full mode must be given materially
	// larger budgets than incremental mode.
	IncrementalPageCap int
	FullPageCap        int
	IncrementalTimeout time.Duration
	FullTimeout        time.Duration

	// LookbackDays is the incremental-mode modified-after window
	LookbackDays int

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RequestTimeout   time.Duration
}

// ReconcileConfig holds duplicate resolution settings
type ReconcileConfig struct {
	// TieBreakOrder lists comparators in priority order; recognized values
	// are "price", "stock" and "account"
	TieBreakOrder []string
}

// AdvisorConfig holds sales velocity and reorder settings
type AdvisorConfig struct {
	WindowMonths int
	// Velocity ladder thresholds on average monthly sold quantity
	HighThreshold   float64
	MediumThreshold float64
	LowThreshold    float64
	CacheTTL        time.Duration
}

// Load loads configuration from a TOML file and environment variables.
// Priority (highest to lowest): SELLERDESK_-prefixed env vars, config.toml,
// built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and env vars apply
	}

	v.SetEnvPrefix("SELLERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Sync: SyncConfig{
			Main: AccountConfig{
				BaseURL:       v.GetString("sync.main.base_url"),
				Username:      v.GetString("sync.main.username"),
				Password:      v.GetString("sync.main.password"),
				CatalogRPS:    v.GetFloat64("sync.main.catalog_rps"),
				OrderRPS:      v.GetFloat64("sync.main.order_rps"),
				Burst:         v.GetInt("sync.main.burst"),
				WarehouseCode: v.GetString("sync.main.warehouse_code"),
			},
			FBE: AccountConfig{
				BaseURL:       v.GetString("sync.fbe.base_url"),
				Username:      v.GetString("sync.fbe.username"),
				Password:      v.GetString("sync.fbe.password"),
				CatalogRPS:    v.GetFloat64("sync.fbe.catalog_rps"),
				OrderRPS:      v.GetFloat64("sync.fbe.order_rps"),
				Burst:         v.GetInt("sync.fbe.burst"),
				WarehouseCode: v.GetString("sync.fbe.warehouse_code"),
			},
			PageSize:           v.GetInt("sync.page_size"),
			SubBatchSize:       v.GetInt("sync.sub_batch_size"),
			IncrementalPageCap: v.GetInt("sync.incremental_page_cap"),
			FullPageCap:        v.GetInt("sync.full_page_cap"),
			IncrementalTimeout: v.GetDuration("sync.incremental_timeout"),
			FullTimeout:        v.GetDuration("sync.full_timeout"),
			LookbackDays:       v.GetInt("sync.lookback_days"),
			RetryMaxAttempts:   v.GetInt("sync.retry_max_attempts"),
			RetryBaseDelay:     v.GetDuration("sync.retry_base_delay"),
			RequestTimeout:     v.GetDuration("sync.request_timeout"),
		},
		Reconcile: ReconcileConfig{
			TieBreakOrder: v.GetStringSlice("reconcile.tie_break_order"),
		},
		Advisor: AdvisorConfig{
			WindowMonths:    v.GetInt("advisor.window_months"),
			HighThreshold:   v.GetFloat64("advisor.high_threshold"),
			MediumThreshold: v.GetFloat64("advisor.medium_threshold"),
			LowThreshold:    v.GetFloat64("advisor.low_threshold"),
			CacheTTL:        v.GetDuration("advisor.cache_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sellerdesk-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "sellerdesk"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}

	applyAccountDefaults(&cfg.Sync.Main, "MAIN")
	applyAccountDefaults(&cfg.Sync.FBE, "FBE")

	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 100
	}
	if cfg.Sync.SubBatchSize == 0 {
		cfg.Sync.SubBatchSize = 100
	}
	if cfg.Sync.IncrementalPageCap == 0 {
		cfg.Sync.IncrementalPageCap = 50
	}
	if cfg.Sync.FullPageCap == 0 {
		cfg.Sync.FullPageCap = 500
	}
	if cfg.Sync.IncrementalTimeout == 0 {
		cfg.Sync.IncrementalTimeout = 5 * time.Minute
	}
	if cfg.Sync.FullTimeout == 0 {
		cfg.Sync.FullTimeout = 15 * time.Minute
	}
	if cfg.Sync.LookbackDays == 0 {
		cfg.Sync.LookbackDays = 7
	}
	if cfg.Sync.RetryMaxAttempts == 0 {
		cfg.Sync.RetryMaxAttempts = 3
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.Sync.RequestTimeout == 0 {
		cfg.Sync.RequestTimeout = 30 * time.Second
	}

	if len(cfg.Reconcile.TieBreakOrder) == 0 {
		cfg.Reconcile.TieBreakOrder = []string{"price", "stock", "account"}
	}

	if cfg.Advisor.WindowMonths == 0 {
		cfg.Advisor.WindowMonths = 6
	}
	if cfg.Advisor.HighThreshold == 0 {
		cfg.Advisor.HighThreshold = 10
	}
	if cfg.Advisor.MediumThreshold == 0 {
		cfg.Advisor.MediumThreshold = 5
	}
	if cfg.Advisor.LowThreshold == 0 {
		cfg.Advisor.LowThreshold = 1
	}
	if cfg.Advisor.CacheTTL == 0 {
		cfg.Advisor.CacheTTL = 15 * time.Minute
	}
}

func applyAccountDefaults(a *AccountConfig, warehouse string) {
	if a.CatalogRPS == 0 {
		a.CatalogRPS = 3
	}
	if a.OrderRPS == 0 {
		a.OrderRPS = 12
	}
	if a.Burst == 0 {
		a.Burst = 1
	}
	if a.WarehouseCode == "" {
		a.WarehouseCode = warehouse
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	// Full mode must get at least 3x the incremental budget given observed
	// page-fetch latency on multi-thousand-record catalogs
	if c.Sync.FullTimeout < 3*c.Sync.IncrementalTimeout {
		return fmt.Errorf("sync.full_timeout (%v) must be at least 3x sync.incremental_timeout (%v)",
			c.Sync.FullTimeout, c.Sync.IncrementalTimeout)
	}
	if c.Sync.FullPageCap < c.Sync.IncrementalPageCap {
		return fmt.Errorf("sync.full_page_cap (%d) cannot be below sync.incremental_page_cap (%d)",
			c.Sync.FullPageCap, c.Sync.IncrementalPageCap)
	}

	for _, comparator := range c.Reconcile.TieBreakOrder {
		switch comparator {
		case "price", "stock", "account":
		default:
			return fmt.Errorf("reconcile.tie_break_order contains unknown comparator %q", comparator)
		}
	}

	if c.Advisor.WindowMonths <= 0 {
		return fmt.Errorf("advisor.window_months must be positive")
	}
	if !(c.Advisor.HighThreshold > c.Advisor.MediumThreshold && c.Advisor.MediumThreshold > c.Advisor.LowThreshold) {
		return fmt.Errorf("advisor velocity thresholds must be strictly decreasing (high > medium > low)")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Sync.Main.Username == "" || c.Sync.FBE.Username == "" {
			return fmt.Errorf("marketplace credentials for both accounts are required in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
