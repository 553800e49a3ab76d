package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/adaptedu-backend/internal/http/handlers"
	httpMW "github.com/yungbote/adaptedu-backend/internal/http/middleware"
	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	RateLimiter    *httpMW.RateLimiter
	RateLimit      int // per user per minute on LLM/TTS routes

	HealthHandler   *httpH.HealthHandler
	AuthHandler     *httpH.AuthHandler
	UserHandler     *httpH.UserHandler
	RealtimeHandler *httpH.RealtimeHandler
	CreationHandler *httpH.CreationHandler
	ViewerHandler   *httpH.ViewerHandler
	SpeechHandler   *httpH.SpeechHandler
	PipelineHandler *httpH.PipelineHandler
	CourseHandler   *httpH.CourseHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 16 << 20
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins...))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
		}
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	limited := func(bucket string) gin.HandlerFunc {
		return cfg.RateLimiter.Limit(bucket, cfg.RateLimit, time.Minute)
	}
	{
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}

		// Creation sessions
		if cfg.CreationHandler != nil {
			protected.POST("/creations", cfg.CreationHandler.Open)
			protected.GET("/creations/:id", cfg.CreationHandler.Get)
			protected.POST("/creations/:id/upload", limited("llm"), cfg.CreationHandler.Upload)
			protected.POST("/creations/:id/generate", limited("llm"), cfg.CreationHandler.Generate)
			protected.POST("/creations/:id/publish", cfg.CreationHandler.Publish)
			protected.POST("/creations/:id/viewer", cfg.CreationHandler.OpenViewer)
		}

		// Viewers
		if cfg.ViewerHandler != nil {
			protected.GET("/viewers/:id/page", cfg.ViewerHandler.Page)
			protected.POST("/viewers/:id/next", cfg.ViewerHandler.Next)
			protected.POST("/viewers/:id/prev", cfg.ViewerHandler.Prev)
			protected.POST("/viewers/:id/goto", cfg.ViewerHandler.GoTo)
			protected.POST("/viewers/:id/quiz/:sectionId/select", cfg.ViewerHandler.SelectOption)
			protected.POST("/viewers/:id/quiz/:sectionId/reveal", cfg.ViewerHandler.RevealAnswer)
			protected.POST("/viewers/:id/narration", limited("tts"), cfg.ViewerHandler.ToggleNarration)
			protected.POST("/viewers/:id/narration/ended", cfg.ViewerHandler.NarrationEnded)
			protected.POST("/viewers/:id/voice", limited("llm"), cfg.ViewerHandler.Voice)
			protected.POST("/viewers/:id/voice/mute", cfg.ViewerHandler.ToggleMute)
			protected.DELETE("/viewers/:id", cfg.ViewerHandler.Close)
			protected.POST("/courses/:id/viewer", cfg.ViewerHandler.OpenPublished)
		}

		// Stateless endpoints
		if cfg.SpeechHandler != nil {
			protected.POST("/text-to-speech", limited("tts"), cfg.SpeechHandler.TextToSpeech)
			protected.POST("/process-voice-command", limited("llm"), cfg.SpeechHandler.ProcessVoiceCommand)
		}
		if cfg.PipelineHandler != nil {
			protected.POST("/analyze-pdf", limited("llm"), cfg.PipelineHandler.AnalyzePDF)
			protected.POST("/generate-course", limited("llm"), cfg.PipelineHandler.GenerateCourse)
		}

		// Published courses
		if cfg.CourseHandler != nil {
			protected.GET("/courses", cfg.CourseHandler.ListUserCourses)
			protected.GET("/courses/:id", cfg.CourseHandler.GetCourse)
		}
	}

	return r
}
