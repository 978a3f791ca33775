package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, loaded, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded {
		t.Error("loaded = true, want false without config.yaml")
	}

	if cfg.API.BaseURL != "https://reqres.in/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.Retry.MaxAttempts != 3 || cfg.Retry.InitialBackoff != time.Second {
		t.Errorf("Retry = %+v, want 3 attempts from 1s", cfg.Retry)
	}
	if cfg.Export.OutputPath != "sample_output.json" {
		t.Errorf("OutputPath = %q", cfg.Export.OutputPath)
	}
	if cfg.Cache.RedisAddr != "" || cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache = %+v, want disabled with 5m TTL", cfg.Cache)
	}
	if cfg.Log.Level != "info" || cfg.Log.Pretty {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
api:
  base_url: http://localhost:9000/api
  key: file-key
retry:
  max_attempts: 5
  initial_backoff: 250ms
export:
  output_path: /tmp/customers.json
  s3:
    bucket: exports
cache:
  redis_addr: localhost:6379
  ttl: 1m
processor:
  seed: 42
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !loaded {
		t.Error("loaded = false, want true")
	}

	if cfg.API.BaseURL != "http://localhost:9000/api" || cfg.API.Key != "file-key" {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.InitialBackoff != 250*time.Millisecond {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.Export.S3.Bucket != "exports" || cfg.Export.S3.Key != "customers/sample_output.json" {
		t.Errorf("S3 = %+v", cfg.Export.S3)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.TTL != time.Minute {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Processor.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Processor.Seed)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_API_BASE_URL", "https://api.example.com")
	t.Setenv("PIPELINE_RETRY_MAX_ATTEMPTS", "2")
	t.Setenv("PIPELINE_LOG_LEVEL", "debug")

	cfg, _, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Retry.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", cfg.Retry.MaxAttempts)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [unclosed"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, _, err := Load(dir); err == nil {
		t.Error("Load() should fail on malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			API:    APIConfig{BaseURL: "https://reqres.in/api"},
			Retry:  RetryConfig{MaxAttempts: 3, InitialBackoff: time.Second},
			Export: ExportConfig{OutputPath: "out.json"},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:     "relative url",
			mutate:   func(c *Config) { c.API.BaseURL = "/api" },
			errorMsg: `api.base_url must be an absolute http(s) url (got "/api")`,
		},
		{
			name:     "ftp url",
			mutate:   func(c *Config) { c.API.BaseURL = "ftp://example.com" },
			errorMsg: `api.base_url must be an absolute http(s) url (got "ftp://example.com")`,
		},
		{
			name:     "zero attempts",
			mutate:   func(c *Config) { c.Retry.MaxAttempts = 0 },
			errorMsg: "retry.max_attempts must be >= 1 (got 0)",
		},
		{
			name:     "negative backoff",
			mutate:   func(c *Config) { c.Retry.InitialBackoff = -time.Second },
			errorMsg: "retry.initial_backoff must be > 0 (got -1s)",
		},
		{
			name:     "missing output",
			mutate:   func(c *Config) { c.Export.OutputPath = "" },
			errorMsg: "export.output_path is required",
		},
		{
			name:     "bucket without key",
			mutate:   func(c *Config) { c.Export.S3.Bucket = "b" },
			errorMsg: "export.s3.key is required when export.s3.bucket is set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.errorMsg {
				t.Errorf("Validate() error = %v, want %q", err, tt.errorMsg)
			}
		})
	}
}
