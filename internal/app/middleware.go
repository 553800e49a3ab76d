package app

import (
	httpMW "github.com/yungbote/adaptedu-backend/internal/http/middleware"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimiter
}

func wireMiddleware(log *logger.Logger, clients Clients, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Auth),
		RateLimit: httpMW.NewRateLimiter(clients.Redis, log),
	}
}
