package app

import (
	inhttp "github.com/yungbote/adaptedu-backend/internal/http"
	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, tracing bool, handlers Handlers, middleware Middleware) *inhttp.Server {
	return inhttp.NewServer(inhttp.RouterConfig{
		Log:             log,
		ServiceName:     cfg.ServiceName,
		TracingEnabled:  tracing,
		CORSOrigins:     cfg.Origins(),
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		RateLimiter:     middleware.RateLimit,
		RateLimit:       cfg.RateLimitPerMinute,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		UserHandler:     handlers.User,
		RealtimeHandler: handlers.Realtime,
		CreationHandler: handlers.Creation,
		ViewerHandler:   handlers.Viewer,
		SpeechHandler:   handlers.Speech,
		PipelineHandler: handlers.Pipeline,
		CourseHandler:   handlers.Course,
	})
}
