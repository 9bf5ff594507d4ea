package config

import (
	"fmt"
	"strings"
	"time"

	"golang-stock-tracker/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App          App            `mapstructure:"app"`
	Log          Logger         `mapstructure:"logger"`
	DB           Database       `mapstructure:"database"`
	API          API            `mapstructure:"api"`
	Auth         Auth           `mapstructure:"auth"`
	Scheduler    Scheduler      `mapstructure:"scheduler"`
	YahooFinance YahooFinance   `mapstructure:"yahoo_finance"`
	Cache        Cache          `mapstructure:"cache"`
	AlertEngine  AlertEngine    `mapstructure:"alert_engine"`
	Portfolio    Portfolio      `mapstructure:"portfolio"`
	Notification Notification   `mapstructure:"notification"`
	Email        Email          `mapstructure:"email"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	Gemini       Gemini         `mapstructure:"gemini"`
	CleanUp      CleanUp        `mapstructure:"clean_up"`
}

type App struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

func (a App) IsProduction() bool {
	return strings.EqualFold(a.Env, common.ENV_PRODUCTION)
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port            int           `mapstructure:"port"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
	AuthRateLimit   RateLimit     `mapstructure:"auth_rate_limit"`
	StockRateLimit  RateLimit     `mapstructure:"stock_rate_limit"`
}

// RateLimit is expressed as requests per minute per client IP.
type RateLimit struct {
	RequestPerMinute int           `mapstructure:"request_per_minute"`
	Burst            int           `mapstructure:"burst"`
	ExpiresIn        time.Duration `mapstructure:"expires_in"`
}

type Auth struct {
	JWTSecret        string        `mapstructure:"jwt_secret"`
	JWTRefreshSecret string        `mapstructure:"jwt_refresh_secret"`
	AccessTokenTTL   time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `mapstructure:"refresh_token_ttl"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LockoutDuration  time.Duration `mapstructure:"lockout_duration"`
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
}

type Scheduler struct {
	StartupDelay        time.Duration `mapstructure:"startup_delay"`
	TimeoutDuration     time.Duration `mapstructure:"timeout_duration"`
	AlertRulesCron      string        `mapstructure:"alert_rules_cron"`
	WatchlistAlertsCron string        `mapstructure:"watchlist_alerts_cron"`
	DataCleanUpCron     string        `mapstructure:"data_clean_up_cron"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	RetryCount          int           `mapstructure:"retry_count"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	PriceTTL          time.Duration `mapstructure:"price_ttl"`
}

type AlertEngine struct {
	// Cooldown of zero keeps re-firing a rule on every run while its condition holds.
	Cooldown time.Duration `mapstructure:"cooldown"`

	// Watchlist alerts fire on a daily move of at least WatchlistMovePercent, or
	// when price is more than WatchlistSMADeviation percent away from its
	// WatchlistSMAPeriod-day average in the direction of the day's move.
	WatchlistMovePercent  float64 `mapstructure:"watchlist_move_percent"`
	WatchlistSMAPeriod    int     `mapstructure:"watchlist_sma_period"`
	WatchlistSMADeviation float64 `mapstructure:"watchlist_sma_deviation"`
}

type Portfolio struct {
	MaxConcurrency  int `mapstructure:"max_concurrency"`
	PerformanceTopN int `mapstructure:"performance_top_n"`
}

type Notification struct {
	QueueSize    int           `mapstructure:"queue_size"`
	Workers      int           `mapstructure:"workers"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	SendTimeout  time.Duration `mapstructure:"send_timeout"`
}

type Email struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type TelegramConfig struct {
	Enabled                   bool          `mapstructure:"enabled"`
	BotToken                  string        `mapstructure:"bot_token"`
	OpsChatID                 int64         `mapstructure:"ops_chat_id"`
	Polling                   bool          `mapstructure:"polling"`
	TimeoutDuration           time.Duration `mapstructure:"timeout_duration"`
	MaxGlobalRequestPerSecond int           `mapstructure:"max_global_request_per_second"`
	MaxUserRequestPerSecond   int           `mapstructure:"max_user_request_per_second"`
	RatelimitExpireDuration   time.Duration `mapstructure:"ratelimit_expire_duration"`
	RateLimitCleanupDuration  time.Duration `mapstructure:"rate_limit_cleanup_duration"`
}

type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	BaseModel           string        `mapstructure:"base_model"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int           `mapstructure:"max_token_per_minute"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

type CleanUp struct {
	RetentionDays int `mapstructure:"retention_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "golang-stock-tracker")
	v.SetDefault("app.env", "development")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{
		"database.user", "database.password", "database.name", "database.time_zone",
		"auth.jwt_secret", "auth.jwt_refresh_secret",
		"email.enabled", "email.host", "email.username", "email.password", "email.from",
		"telegram.enabled", "telegram.bot_token", "telegram.ops_chat_id", "telegram.polling",
		"gemini.api_key",
	} {
		v.SetDefault(key, "")
	}

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.log_level", "Warn")

	v.SetDefault("api.port", 5000)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("api.rate_limit.request_per_minute", 100)
	v.SetDefault("api.rate_limit.burst", 100)
	v.SetDefault("api.rate_limit.expires_in", 3*time.Minute)
	v.SetDefault("api.auth_rate_limit.request_per_minute", 10)
	v.SetDefault("api.auth_rate_limit.burst", 10)
	v.SetDefault("api.auth_rate_limit.expires_in", 15*time.Minute)
	v.SetDefault("api.stock_rate_limit.request_per_minute", 30)
	v.SetDefault("api.stock_rate_limit.burst", 30)
	v.SetDefault("api.stock_rate_limit.expires_in", 3*time.Minute)

	v.SetDefault("auth.access_token_ttl", time.Hour)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lockout_duration", 15*time.Minute)
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("scheduler.startup_delay", 30*time.Second)
	v.SetDefault("scheduler.timeout_duration", 10*time.Minute)
	v.SetDefault("scheduler.alert_rules_cron", "0 * * * *")
	v.SetDefault("scheduler.watchlist_alerts_cron", "0 * * * *")
	v.SetDefault("scheduler.data_clean_up_cron", "30 3 * * *")

	v.SetDefault("yahoo_finance.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo_finance.timeout", 10*time.Second)
	v.SetDefault("yahoo_finance.max_request_per_minute", 120)
	v.SetDefault("yahoo_finance.retry_count", 2)

	v.SetDefault("cache.default_expiration", time.Hour)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)
	v.SetDefault("cache.price_ttl", 5*time.Minute)

	v.SetDefault("alert_engine.cooldown", 0)
	v.SetDefault("alert_engine.watchlist_move_percent", 5)
	v.SetDefault("alert_engine.watchlist_sma_period", 20)
	v.SetDefault("alert_engine.watchlist_sma_deviation", 5)

	v.SetDefault("portfolio.max_concurrency", 5)
	v.SetDefault("portfolio.performance_top_n", 5)

	v.SetDefault("notification.queue_size", 256)
	v.SetDefault("notification.workers", 2)
	v.SetDefault("notification.max_retries", 3)
	v.SetDefault("notification.retry_backoff", 2*time.Second)
	v.SetDefault("notification.send_timeout", 15*time.Second)

	v.SetDefault("email.port", 587)

	v.SetDefault("telegram.timeout_duration", 10*time.Second)
	v.SetDefault("telegram.max_global_request_per_second", 30)
	v.SetDefault("telegram.max_user_request_per_second", 1)
	v.SetDefault("telegram.ratelimit_expire_duration", 10*time.Minute)
	v.SetDefault("telegram.rate_limit_cleanup_duration", 5*time.Minute)

	v.SetDefault("gemini.base_model", "gemini-2.0-flash")
	v.SetDefault("gemini.max_request_per_minute", 10)
	v.SetDefault("gemini.max_token_per_minute", 250000)
	v.SetDefault("gemini.timeout", 30*time.Second)

	v.SetDefault("clean_up.retention_days", 30)
}

// Load reads .env (if present), config.yaml from the working directory and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AddConfigPath(".")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" || c.Auth.JWTRefreshSecret == "" {
		return fmt.Errorf("auth.jwt_secret and auth.jwt_refresh_secret are required")
	}
	if c.YahooFinance.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("yahoo_finance.max_request_per_minute must be positive")
	}
	return nil
}
