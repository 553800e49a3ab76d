package repos

import (
	"github.com/yungbote/adaptedu-backend/internal/data/repos/auth"
	"github.com/yungbote/adaptedu-backend/internal/data/repos/course"
	"github.com/yungbote/adaptedu-backend/internal/data/repos/user"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo
type CourseRepo = course.CourseRepo

var (
	NewUserRepo         = user.NewUserRepo
	NewUserTokenRepo    = auth.NewUserTokenRepo
	NewCourseRepo       = course.NewCourseRepo
	NewCachedCourseRepo = course.NewCachedCourseRepo
)

var ErrCourseNotFound = course.ErrNotFound
