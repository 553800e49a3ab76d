package domain

import (
	"github.com/yungbote/adaptedu-backend/internal/domain/auth"
	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	"github.com/yungbote/adaptedu-backend/internal/domain/user"
)

type (
	User      = user.User
	UserToken = auth.UserToken

	Course          = course.Course
	Section         = course.Section
	Sections        = course.Sections
	FormOptions     = course.FormOptions
	QuizAnswer      = course.QuizAnswer
	QuizAnswerState = course.QuizAnswerState
	PublishedCourse = course.PublishedCourse
)

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&user.User{},
		&auth.UserToken{},
		&course.PublishedCourse{},
	}
}
