package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/adaptedu-backend/internal/modules/coursegen"
	"github.com/yungbote/adaptedu-backend/internal/modules/ingestion"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
	"github.com/yungbote/adaptedu-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Course    services.CourseService
	Speech    services.SpeechService
	Creation  services.CreationService
	Viewer    services.ViewerService
	Generator coursegen.Generator
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, emitter realtime.Emitter) Services {
	log.Info("Wiring services...")

	steps := []ingestion.Extractor{ingestion.NewPDFExtractor()}
	if clients.GcpDocument != nil {
		steps = append(steps, ingestion.NewOCRExtractor(clients.GcpDocument))
	}
	extractor := ingestion.NewChainExtractor(log, steps...)
	generator := coursegen.NewGenerator(log, clients.OpenAI, cfg.OpenAIModel)

	authService := services.NewAuthService(db, log, repos.User, repos.UserToken, cfg.JWTSecretKey, cfg.AccessTTL(), cfg.RefreshTTL())
	userService := services.NewUserService(log, repos.User)
	courseService := services.NewCourseService(log, repos.Course, emitter)
	speechService := services.NewSpeechService(log, clients.OpenAI, clients.GcpSpeech, cfg.OpenAIModel, cfg.TTSVoice)
	creationService := services.NewCreationService(
		log,
		services.CreationConfig{Progress: ingestion.DefaultProgressConfig, SessionTTL: cfg.SessionTTL()},
		extractor,
		generator,
		courseService,
		clients.GcpBucket,
		emitter,
	)
	viewerService := services.NewViewerService(log, creationService, courseService, speechService, emitter, cfg.TTSVoice, cfg.SessionTTL())

	return Services{
		Auth:      authService,
		User:      userService,
		Course:    courseService,
		Speech:    speechService,
		Creation:  creationService,
		Viewer:    viewerService,
		Generator: generator,
	}
}
