package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/adaptedu-backend/internal/http/response"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/services"
)

const (
	defaultCourseLimit = 50
	maxCourseLimit     = 200
)

type CourseHandler struct {
	log     *logger.Logger
	courses services.CourseService
}

func NewCourseHandler(log *logger.Logger, courses services.CourseService) *CourseHandler {
	return &CourseHandler{log: log.With("handler", "CourseHandler"), courses: courses}
}

// GET /courses?limit=n
func (h *CourseHandler) ListUserCourses(c *gin.Context) {
	limit := defaultCourseLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, maxCourseLimit)
	}
	courses, err := h.courses.ListMine(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

// GET /courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	course, err := h.courses.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}
