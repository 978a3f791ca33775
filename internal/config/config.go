// Package config loads pipeline settings from defaults, an optional
// config.yaml and PIPELINE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PIPELINE_API_BASE_URL for api.base_url.
const EnvPrefix = "PIPELINE"

// Config holds all settings of a pipeline run.
type Config struct {
	API       APIConfig
	Retry     RetryConfig
	Export    ExportConfig
	Cache     CacheConfig
	Log       LogConfig
	Metrics   MetricsConfig
	Processor ProcessorConfig
}

// APIConfig describes the upstream customer API.
type APIConfig struct {
	BaseURL   string
	Key       string
	UserAgent string
	Timeout   time.Duration
}

// RetryConfig bounds per-page retries.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
}

// ExportConfig names the export destinations.
type ExportConfig struct {
	OutputPath string
	S3         S3Config
}

// S3Config enables an additional S3 copy of the export when Bucket is set.
type S3Config struct {
	Bucket string
	Key    string
	Region string
}

// CacheConfig enables the Redis page cache when RedisAddr is set.
type CacheConfig struct {
	RedisAddr string
	TTL       time.Duration
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string
	Pretty bool
}

// MetricsConfig enables the metrics textfile when Textfile is set.
type MetricsConfig struct {
	Textfile string
}

// ProcessorConfig controls enrichment. A zero seed means clock-seeded.
type ProcessorConfig struct {
	Seed int64
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://reqres.in/api")
	v.SetDefault("api.key", "")
	v.SetDefault("api.user_agent", "customer-pipeline/0.1.0")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff", time.Second)
	v.SetDefault("export.output_path", "sample_output.json")
	v.SetDefault("export.s3.bucket", "")
	v.SetDefault("export.s3.key", "customers/sample_output.json")
	v.SetDefault("export.s3.region", "us-east-1")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("processor.seed", 0)
}

// Load reads config.yaml from configPath if present, applies environment
// overrides and validates the result. loaded reports whether a file was read.
func Load(configPath string) (cfg Config, loaded bool, err error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, false, fmt.Errorf("read config: %w", err)
		}
	} else {
		loaded = true
	}

	cfg = Config{
		API: APIConfig{
			BaseURL:   v.GetString("api.base_url"),
			Key:       v.GetString("api.key"),
			UserAgent: v.GetString("api.user_agent"),
			Timeout:   v.GetDuration("api.timeout"),
		},
		Retry: RetryConfig{
			MaxAttempts:    v.GetInt("retry.max_attempts"),
			InitialBackoff: v.GetDuration("retry.initial_backoff"),
		},
		Export: ExportConfig{
			OutputPath: v.GetString("export.output_path"),
			S3: S3Config{
				Bucket: v.GetString("export.s3.bucket"),
				Key:    v.GetString("export.s3.key"),
				Region: v.GetString("export.s3.region"),
			},
		},
		Cache: CacheConfig{
			RedisAddr: v.GetString("cache.redis_addr"),
			TTL:       v.GetDuration("cache.ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
		Metrics: MetricsConfig{
			Textfile: v.GetString("metrics.textfile"),
		},
		Processor: ProcessorConfig{
			Seed: v.GetInt64("processor.seed"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, loaded, err
	}
	return cfg, loaded, nil
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) url (got %q)", c.API.BaseURL)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1 (got %d)", c.Retry.MaxAttempts)
	}
	if c.Retry.InitialBackoff <= 0 {
		return fmt.Errorf("retry.initial_backoff must be > 0 (got %v)", c.Retry.InitialBackoff)
	}
	if c.Export.OutputPath == "" {
		return fmt.Errorf("export.output_path is required")
	}
	if c.Export.S3.Bucket != "" && c.Export.S3.Key == "" {
		return fmt.Errorf("export.s3.key is required when export.s3.bucket is set")
	}
	return nil
}
