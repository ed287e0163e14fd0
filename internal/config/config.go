package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/papersynth/papersynth/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Gate       GateConfig       `mapstructure:"gate"`
	Workspace  WorkspaceConfig  `mapstructure:"workspace"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Features   FeatureConfig    `mapstructure:"features"`
	Signing    SigningConfig    `mapstructure:"signing"`
	Collab     CollabConfig     `mapstructure:"collab"`
	Log        LogConfig        `mapstructure:"log"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int      `mapstructure:"write_timeout"` // in seconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	// Token is the static bearer token required on the processing endpoint.
	// Empty disables authentication (development convenience).
	Token string `mapstructure:"token"`
}

func (c *AuthConfig) Enabled() bool { return c.Token != "" }

type RateLimitConfig struct {
	// PerMinute is the per-client token bucket capacity. Zero or negative
	// disables limiting.
	PerMinute int `mapstructure:"per_minute"`
	// BucketIdleTTL is how long an idle client bucket is kept, in minutes.
	BucketIdleTTL int `mapstructure:"bucket_idle_ttl"`
	// RedisAddr, when set, switches to the distributed limiter backend.
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

func (c *RateLimitConfig) Enabled() bool { return c.PerMinute > 0 }

func (c *RateLimitConfig) IdleTTL() time.Duration {
	if c.BucketIdleTTL <= 0 {
		return constants.DefaultBucketIdleTTL
	}
	return time.Duration(c.BucketIdleTTL) * time.Minute
}

type GateConfig struct {
	// Limit bounds concurrent expensive operations. Zero or negative
	// disables the gate.
	Limit int `mapstructure:"limit"`
}

type WorkspaceConfig struct {
	Root          string  `mapstructure:"root"`
	TTLHours      int     `mapstructure:"ttl_hours"`
	SizeCapGB     float64 `mapstructure:"size_cap_gb"`
	SweepInterval int     `mapstructure:"sweep_interval"` // in minutes
}

// TTL returns the workspace time-to-live with a one-hour floor, matching the
// floor applied to misconfigured deployments.
func (c *WorkspaceConfig) TTL() time.Duration {
	hours := c.TTLHours
	if hours < 1 {
		hours = 1
	}
	return time.Duration(hours) * time.Hour
}

// SizeCapBytes returns the aggregate size cap with a 100 MiB floor.
func (c *WorkspaceConfig) SizeCapBytes() int64 {
	cap := int64(c.SizeCapGB * float64(int64(1)<<30))
	if cap < constants.MinSizeCapBytes {
		return constants.MinSizeCapBytes
	}
	return cap
}

func (c *WorkspaceConfig) Interval() time.Duration {
	if c.SweepInterval <= 0 {
		return constants.DefaultSweepInterval
	}
	return time.Duration(c.SweepInterval) * time.Minute
}

type UploadConfig struct {
	MaxBytes     int64 `mapstructure:"max_bytes"`
	MaxPDFPages  int   `mapstructure:"max_pdf_pages"`
	MaxTextChars int   `mapstructure:"max_text_chars"`
}

type FeatureConfig struct {
	// Visual toggles graphical abstract generation.
	Visual bool `mapstructure:"visual"`
	// Audio toggles voiceover synthesis.
	Audio bool `mapstructure:"audio"`
}

type SigningConfig struct {
	// Enabled switches artifact URLs from static paths to signed references.
	Enabled bool `mapstructure:"enabled"`
	// Key is the HMAC secret. Signing is off without it regardless of Enabled.
	Key string `mapstructure:"key"`
	// TTLMinutes is the signed URL lifetime.
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

func (c *SigningConfig) Active() bool { return c.Enabled && c.Key != "" }

func (c *SigningConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return constants.DefaultDownloadTTL
	}
	return time.Duration(c.TTLMinutes) * time.Minute
}

type CollabConfig struct {
	SummarizerURL  string `mapstructure:"summarizer_url"`
	VisualURL      string `mapstructure:"visual_url"`
	SpeechURL      string `mapstructure:"speech_url"`
	RendererURL    string `mapstructure:"renderer_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func (c *CollabConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	ServiceName    string `mapstructure:"service_name"`
}

type MonitoringConfig struct {
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// Validate checks for configuration values that cannot be clamped into shape.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace root must not be empty")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max_bytes must be positive")
	}
	if c.Signing.Enabled && c.Signing.Key == "" {
		return fmt.Errorf("signing enabled but no key configured")
	}
	for _, origin := range c.Server.CORSOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("empty CORS origin in list")
		}
	}
	return nil
}
