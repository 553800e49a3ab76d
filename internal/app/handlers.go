package app

import (
	"context"

	httpH "github.com/yungbote/adaptedu-backend/internal/http/handlers"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Realtime *httpH.RealtimeHandler
	Creation *httpH.CreationHandler
	Viewer   *httpH.ViewerHandler
	Speech   *httpH.SpeechHandler
	Pipeline *httpH.PipelineHandler
	Course   *httpH.CourseHandler
}

func wireHandlers(log *logger.Logger, clients Clients, services Services, hub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(readinessChecks(clients)),
		Auth:     httpH.NewAuthHandler(log, services.Auth),
		User:     httpH.NewUserHandler(log, services.User),
		Realtime: httpH.NewRealtimeHandler(log, hub),
		Creation: httpH.NewCreationHandler(log, services.Creation, services.Viewer),
		Viewer:   httpH.NewViewerHandler(log, services.Viewer),
		Speech:   httpH.NewSpeechHandler(log, services.Speech),
		Pipeline: httpH.NewPipelineHandler(log, services.Generator),
		Course:   httpH.NewCourseHandler(log, services.Course),
	}
}

func readinessChecks(clients Clients) map[string]httpH.Pinger {
	checks := map[string]httpH.Pinger{}
	if clients.Postgres != nil {
		checks["postgres"] = func(ctx context.Context) error {
			sqlDB, err := clients.Postgres.DB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if clients.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}
	}
	return checks
}
