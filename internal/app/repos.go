package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/adaptedu-backend/internal/data/repos"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type Repos struct {
	User      repos.UserRepo
	UserToken repos.UserTokenRepo
	Course    repos.CourseRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, clients Clients, cfg Config) Repos {
	log.Info("Wiring repos...")
	var course repos.CourseRepo = repos.NewCourseRepo(db, log)
	if clients.Redis != nil && cfg.CourseCacheTTLSeconds > 0 {
		course = repos.NewCachedCourseRepo(course, clients.Redis, cfg.CourseCacheTTL(), log)
	}
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),
		Course:    course,
	}
}
