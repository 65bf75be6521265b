package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Fetcher   FetcherConfig
	Imaging   ImagingConfig
	Parser    ParserConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// FetcherConfig holds document download settings.
type FetcherConfig struct {
	TimeoutSecs      int   `mapstructure:"timeout_secs"`
	MaxAttempts      int   `mapstructure:"max_attempts"`
	BackoffInitialMS int   `mapstructure:"backoff_initial_ms"`
	BackoffMaxMS     int   `mapstructure:"backoff_max_ms"`
	MaxFileSizeMB    int64 `mapstructure:"max_file_size_mb"`
}

// ImagingConfig holds page rasterization and enhancement settings.
type ImagingConfig struct {
	PDFRenderDPI int `mapstructure:"pdf_render_dpi"`
	MaxDimension int `mapstructure:"max_dimension"`
	JPEGQuality  int `mapstructure:"jpeg_quality"`
}

// ParserProviderConfig holds settings for a single LLM extraction provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds LLM extraction settings with primary/secondary fallback.
type ParserConfig struct {
	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// ReconcileConfig holds numeric reconciliation policy.
type ReconcileConfig struct {
	TolerancePct         float64 `mapstructure:"tolerance_pct"`
	ToleranceAbs         float64 `mapstructure:"tolerance_abs"`
	AllowNegativeAmounts bool    `mapstructure:"allow_negative_amounts"`
}

// Load reads configuration from environment variables with the MEDIBILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MEDIBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// Fetcher defaults
	v.SetDefault("fetcher.timeout_secs", 20)
	v.SetDefault("fetcher.max_attempts", 3)
	v.SetDefault("fetcher.backoff_initial_ms", 250)
	v.SetDefault("fetcher.backoff_max_ms", 4000)
	v.SetDefault("fetcher.max_file_size_mb", 25)

	// Imaging defaults
	v.SetDefault("imaging.pdf_render_dpi", 150)
	v.SetDefault("imaging.max_dimension", 1024)
	v.SetDefault("imaging.jpeg_quality", 85)

	// Parser defaults
	v.SetDefault("parser.primary.provider", "gemini")
	v.SetDefault("parser.primary.api_key", "")
	v.SetDefault("parser.primary.default_model", "gemini-2.5-flash")
	v.SetDefault("parser.primary.timeout_secs", 30)
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.secondary.api_key", "")
	v.SetDefault("parser.secondary.default_model", "")
	v.SetDefault("parser.secondary.timeout_secs", 30)

	// Reconcile defaults: tolerance is max(1%, 1 currency unit); negative
	// amounts (discounts/refunds) rejected unless explicitly enabled.
	v.SetDefault("reconcile.tolerance_pct", 0.01)
	v.SetDefault("reconcile.tolerance_abs", 1.00)
	v.SetDefault("reconcile.allow_negative_amounts", false)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                      "MEDIBILL_SERVER_PORT",
		"server.read_timeout":              "MEDIBILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":             "MEDIBILL_SERVER_WRITE_TIMEOUT",
		"server.environment":               "MEDIBILL_SERVER_ENVIRONMENT",
		"fetcher.timeout_secs":             "MEDIBILL_FETCHER_TIMEOUT_SECS",
		"fetcher.max_attempts":             "MEDIBILL_FETCHER_MAX_ATTEMPTS",
		"fetcher.backoff_initial_ms":       "MEDIBILL_FETCHER_BACKOFF_INITIAL_MS",
		"fetcher.backoff_max_ms":           "MEDIBILL_FETCHER_BACKOFF_MAX_MS",
		"fetcher.max_file_size_mb":         "MEDIBILL_FETCHER_MAX_FILE_SIZE_MB",
		"imaging.pdf_render_dpi":           "MEDIBILL_IMAGING_PDF_RENDER_DPI",
		"imaging.max_dimension":            "MEDIBILL_IMAGING_MAX_DIMENSION",
		"imaging.jpeg_quality":             "MEDIBILL_IMAGING_JPEG_QUALITY",
		"parser.primary.provider":          "MEDIBILL_PARSER_PRIMARY_PROVIDER",
		"parser.primary.api_key":           "MEDIBILL_PARSER_PRIMARY_API_KEY",
		"parser.primary.default_model":     "MEDIBILL_PARSER_PRIMARY_DEFAULT_MODEL",
		"parser.primary.timeout_secs":      "MEDIBILL_PARSER_PRIMARY_TIMEOUT_SECS",
		"parser.secondary.provider":        "MEDIBILL_PARSER_SECONDARY_PROVIDER",
		"parser.secondary.api_key":         "MEDIBILL_PARSER_SECONDARY_API_KEY",
		"parser.secondary.default_model":   "MEDIBILL_PARSER_SECONDARY_DEFAULT_MODEL",
		"parser.secondary.timeout_secs":    "MEDIBILL_PARSER_SECONDARY_TIMEOUT_SECS",
		"reconcile.tolerance_pct":          "MEDIBILL_RECONCILE_TOLERANCE_PCT",
		"reconcile.tolerance_abs":          "MEDIBILL_RECONCILE_TOLERANCE_ABS",
		"reconcile.allow_negative_amounts": "MEDIBILL_RECONCILE_ALLOW_NEGATIVE_AMOUNTS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if MEDIBILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("MEDIBILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Fetcher = FetcherConfig{
		TimeoutSecs:      v.GetInt("fetcher.timeout_secs"),
		MaxAttempts:      v.GetInt("fetcher.max_attempts"),
		BackoffInitialMS: v.GetInt("fetcher.backoff_initial_ms"),
		BackoffMaxMS:     v.GetInt("fetcher.backoff_max_ms"),
		MaxFileSizeMB:    v.GetInt64("fetcher.max_file_size_mb"),
	}
	cfg.Imaging = ImagingConfig{
		PDFRenderDPI: v.GetInt("imaging.pdf_render_dpi"),
		MaxDimension: v.GetInt("imaging.max_dimension"),
		JPEGQuality:  v.GetInt("imaging.jpeg_quality"),
	}
	cfg.Parser = ParserConfig{
		Primary: ParserProviderConfig{
			Provider:     v.GetString("parser.primary.provider"),
			APIKey:       v.GetString("parser.primary.api_key"),
			DefaultModel: v.GetString("parser.primary.default_model"),
			TimeoutSecs:  v.GetInt("parser.primary.timeout_secs"),
		},
		Secondary: ParserProviderConfig{
			Provider:     v.GetString("parser.secondary.provider"),
			APIKey:       v.GetString("parser.secondary.api_key"),
			DefaultModel: v.GetString("parser.secondary.default_model"),
			TimeoutSecs:  v.GetInt("parser.secondary.timeout_secs"),
		},
	}
	cfg.Reconcile = ReconcileConfig{
		TolerancePct:         v.GetFloat64("reconcile.tolerance_pct"),
		ToleranceAbs:         v.GetFloat64("reconcile.tolerance_abs"),
		AllowNegativeAmounts: v.GetBool("reconcile.allow_negative_amounts"),
	}

	return cfg, nil
}
