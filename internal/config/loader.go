package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papersynth/papersynth/pkg/constants"
)

// LoadConfig loads the configuration from an optional config file and
// PAPERSYNTH_* environment variables. Environment variables win, e.g.
// PAPERSYNTH_RATE_LIMIT_PER_MINUTE=30 overrides rate_limit.per_minute.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/papersynth/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("PAPERSYNTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so every
	// key must have a default above.

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 60)
	v.SetDefault("server.write_timeout", 300)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	v.SetDefault("auth.token", "")

	v.SetDefault("rate_limit.per_minute", constants.DefaultRateLimitPerMinute)
	v.SetDefault("rate_limit.bucket_idle_ttl", int(constants.DefaultBucketIdleTTL.Minutes()))
	v.SetDefault("rate_limit.redis_addr", "")
	v.SetDefault("rate_limit.redis_password", "")
	v.SetDefault("rate_limit.redis_db", 0)

	v.SetDefault("gate.limit", constants.DefaultConcurrencyLimit)

	v.SetDefault("workspace.root", "temp_files")
	v.SetDefault("workspace.ttl_hours", int(constants.DefaultWorkspaceTTL.Hours()))
	v.SetDefault("workspace.size_cap_gb", float64(constants.DefaultSizeCapBytes)/float64(int64(1)<<30))
	v.SetDefault("workspace.sweep_interval", int(constants.DefaultSweepInterval.Minutes()))

	v.SetDefault("upload.max_bytes", constants.DefaultMaxUploadBytes)
	v.SetDefault("upload.max_pdf_pages", constants.DefaultMaxPDFPages)
	v.SetDefault("upload.max_text_chars", constants.DefaultMaxTextChars)

	v.SetDefault("features.visual", true)
	v.SetDefault("features.audio", true)

	v.SetDefault("signing.enabled", false)
	v.SetDefault("signing.key", "")
	v.SetDefault("signing.ttl_minutes", int(constants.DefaultDownloadTTL.Minutes()))

	v.SetDefault("collab.summarizer_url", "")
	v.SetDefault("collab.visual_url", "")
	v.SetDefault("collab.speech_url", "")
	v.SetDefault("collab.renderer_url", "")
	v.SetDefault("collab.timeout_seconds", 60)

	v.SetDefault("log.level", "info")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.service_name", "papersynth")

	v.SetDefault("monitoring.pprof_enabled", false)
}
