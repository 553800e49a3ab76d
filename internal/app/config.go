package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string `mapstructure:"APP_ENV"`
	LogMode     string `mapstructure:"LOG_MODE"`
	Port        string `mapstructure:"PORT"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
	Version     string `mapstructure:"VERSION"`

	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresName     string `mapstructure:"POSTGRES_NAME"`
	PostgresSSLMode  string `mapstructure:"POSTGRES_SSLMODE"`

	RedisAddr             string `mapstructure:"REDIS_ADDR"`
	RedisPassword         string `mapstructure:"REDIS_PASSWORD"`
	RedisDB               int    `mapstructure:"REDIS_DB"`
	SSEBusChannel         string `mapstructure:"SSE_BUS_CHANNEL"`
	CourseCacheTTLSeconds int    `mapstructure:"COURSE_CACHE_TTL_SECONDS"`

	JWTSecretKey           string `mapstructure:"JWT_SECRET_KEY"`
	AccessTokenTTLSeconds  int    `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTLSeconds int    `mapstructure:"REFRESH_TOKEN_TTL"`

	OpenAIAPIKey         string `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel          string `mapstructure:"OPENAI_MODEL"`
	OpenAITimeoutSeconds int    `mapstructure:"OPENAI_TIMEOUT_SECONDS"`
	OpenAIMaxRetries     int    `mapstructure:"OPENAI_MAX_RETRIES"`
	TTSVoice             string `mapstructure:"TTS_VOICE"`

	GCPCredentials        string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	GCPProjectID          string `mapstructure:"GCP_PROJECT_ID"`
	GCSBucket             string `mapstructure:"GCS_BUCKET"`
	GCSEmulatorHost       string `mapstructure:"GCS_EMULATOR_HOST"`
	DocumentAILocation    string `mapstructure:"DOCUMENTAI_LOCATION"`
	DocumentAIProcessorID string `mapstructure:"DOCUMENTAI_PROCESSOR_ID"`
	SpeechEnabled         bool   `mapstructure:"SPEECH_ENABLED"`
	SpeechLanguageCode    string `mapstructure:"SPEECH_LANGUAGE_CODE"`

	CORSOrigins        string `mapstructure:"CORS_ORIGINS"`
	RateLimitPerMinute int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	SessionTTLMinutes  int    `mapstructure:"SESSION_TTL_MINUTES"`
	MetricsAddr        string `mapstructure:"METRICS_ADDR"`
}

var defaults = map[string]any{
	"APP_ENV":                  "development",
	"LOG_MODE":                 "development",
	"PORT":                     "8080",
	"SERVICE_NAME":             "adaptedu-backend",
	"POSTGRES_HOST":            "localhost",
	"POSTGRES_PORT":            "5432",
	"POSTGRES_USER":            "postgres",
	"POSTGRES_NAME":            "adaptedu",
	"POSTGRES_SSLMODE":         "disable",
	"SSE_BUS_CHANNEL":          "adaptedu:sse",
	"COURSE_CACHE_TTL_SECONDS": 3600,
	"ACCESS_TOKEN_TTL":         3600,
	"REFRESH_TOKEN_TTL":        86400,
	"OPENAI_BASE_URL":          "https://api.openai.com",
	"OPENAI_TIMEOUT_SECONDS":   120,
	"OPENAI_MAX_RETRIES":       0,
	"DOCUMENTAI_LOCATION":      "us",
	"SPEECH_LANGUAGE_CODE":     "en-US",
	"RATE_LIMIT_PER_MINUTE":    30,
	"SESSION_TTL_MINUTES":      120,
	"METRICS_ADDR":             ":9090",
}

// LoadConfig reads app.env from path when present; environment variables
// always win.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, def := range defaults {
		v.SetDefault(key, def)
	}
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.OpenAIMaxRetries < 0 {
		errs = append(errs, errors.New("OPENAI_MAX_RETRIES must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSeconds) * time.Second
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c Config) CourseCacheTTL() time.Duration {
	return time.Duration(c.CourseCacheTTLSeconds) * time.Second
}

func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// configKeys lists every mapstructure key so env-only deployments bind
// without an app.env file.
func configKeys() []string {
	return []string{
		"APP_ENV", "LOG_MODE", "PORT", "SERVICE_NAME", "VERSION",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_NAME", "POSTGRES_SSLMODE",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "SSE_BUS_CHANNEL", "COURSE_CACHE_TTL_SECONDS",
		"JWT_SECRET_KEY", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_TIMEOUT_SECONDS", "OPENAI_MAX_RETRIES", "TTS_VOICE",
		"GOOGLE_APPLICATION_CREDENTIALS", "GCP_PROJECT_ID", "GCS_BUCKET", "GCS_EMULATOR_HOST",
		"DOCUMENTAI_LOCATION", "DOCUMENTAI_PROCESSOR_ID", "SPEECH_ENABLED", "SPEECH_LANGUAGE_CODE",
		"CORS_ORIGINS", "RATE_LIMIT_PER_MINUTE", "SESSION_TTL_MINUTES", "METRICS_ADDR",
	}
}
