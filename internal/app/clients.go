package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/adaptedu-backend/internal/data/db"
	"github.com/yungbote/adaptedu-backend/internal/platform/gcp"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/platform/openai"
	"github.com/yungbote/adaptedu-backend/internal/realtime/bus"
)

// Clients holds every external connection. Redis and the GCP clients are
// optional and stay nil when unconfigured.
type Clients struct {
	Postgres *db.PostgresService
	Redis    *goredis.Client
	SSEBus   bus.Bus

	OpenAI openai.Client

	GcpBucket   gcp.BucketService
	GcpDocument gcp.Document
	GcpSpeech   gcp.Speech
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Postgres
	pg, err := db.NewPostgresService(log, db.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		Name:     cfg.PostgresName,
		SSLMode:  cfg.PostgresSSLMode,
	})
	if err != nil {
		return out, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		return out, fmt.Errorf("postgres automigrate: %w", err)
	}
	out.Postgres = pg

	// Redis
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			out.Close(log)
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		out.Redis = rdb
		b, err := bus.NewRedisBus(log, rdb, cfg.SSEBusChannel)
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		out.SSEBus = b
	} else {
		log.Warn("REDIS_ADDR not set; SSE stays local, rate limiting and course cache disabled")
	}

	// OpenAI
	ai, err := openai.NewClient(log, openai.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIModel,
		TimeoutSeconds: cfg.OpenAITimeoutSeconds,
		MaxRetries:     cfg.OpenAIMaxRetries,
	})
	if err != nil {
		out.Close(log)
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	out.OpenAI = ai

	// GCP
	if cfg.GCSBucket != "" {
		bucket, err := gcp.NewBucketService(log, gcp.BucketConfig{
			Name:         cfg.GCSBucket,
			Credentials:  cfg.GCPCredentials,
			EmulatorHost: cfg.GCSEmulatorHost,
		})
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init bucket client: %w", err)
		}
		out.GcpBucket = bucket
	}
	if cfg.DocumentAIProcessorID != "" {
		doc, err := gcp.NewDocument(log, gcp.DocumentConfig{
			ProjectID:   cfg.GCPProjectID,
			Location:    cfg.DocumentAILocation,
			ProcessorID: cfg.DocumentAIProcessorID,
			Credentials: cfg.GCPCredentials,
		})
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init document client: %w", err)
		}
		out.GcpDocument = doc
	}
	if cfg.SpeechEnabled {
		stt, err := gcp.NewSpeech(log, gcp.SpeechConfig{
			Credentials:  cfg.GCPCredentials,
			LanguageCode: cfg.SpeechLanguageCode,
		})
		if err != nil {
			out.Close(log)
			return Clients{}, fmt.Errorf("init speech client: %w", err)
		}
		out.GcpSpeech = stt
	}
	return out, nil
}

// Close releases every client that was opened.
func (c *Clients) Close(log *logger.Logger) {
	closeLogged := func(name string, fn func() error) {
		if err := fn(); err != nil {
			log.Warn("client close failed", "client", name, "error", err)
		}
	}
	if c.GcpSpeech != nil {
		closeLogged("gcp_speech", c.GcpSpeech.Close)
	}
	if c.GcpDocument != nil {
		closeLogged("gcp_document", c.GcpDocument.Close)
	}
	if c.GcpBucket != nil {
		closeLogged("gcp_bucket", c.GcpBucket.Close)
	}
	if c.SSEBus != nil {
		closeLogged("sse_bus", c.SSEBus.Close)
	}
	if c.Redis != nil {
		closeLogged("redis", c.Redis.Close)
	}
	if c.Postgres != nil {
		closeLogged("postgres", c.Postgres.Close)
	}
}
