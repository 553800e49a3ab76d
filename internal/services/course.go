package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"

	"github.com/yungbote/adaptedu-backend/internal/data/repos"
	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/domain/course"
	"github.com/yungbote/adaptedu-backend/internal/observability"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/dbctx"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
)

// CourseService persists and reads published courses.
type CourseService interface {
	Publish(ctx context.Context, c *types.Course) (*types.PublishedCourse, error)
	ListMine(ctx context.Context, limit int) ([]*types.PublishedCourse, error)
	Get(ctx context.Context, id uuid.UUID) (*types.PublishedCourse, error)
}

type courseService struct {
	log     *logger.Logger
	courses repos.CourseRepo
	emitter realtime.Emitter
}

func NewCourseService(log *logger.Logger, courses repos.CourseRepo, emitter realtime.Emitter) CourseService {
	if emitter == nil {
		emitter = realtime.NopEmitter
	}
	return &courseService{log: log.With("service", "CourseService"), courses: courses, emitter: emitter}
}

// Publish stores one record for the caller. Without an authenticated user
// nothing is written.
func (s *courseService) Publish(ctx context.Context, c *types.Course) (out *types.PublishedCourse, err error) {
	userID := ctxutil.UserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.Validation("missing_course", errors.New("no course to publish"))
	}
	ctx, span := observability.StartSpan(ctx, "course.publish", attribute.Int("sections", len(c.Sections)))
	start := time.Now()
	defer func() {
		observability.EndSpan(span, err)
		observability.Current().ObservePipelineStage("publish", observability.StatusLabel(err), time.Since(start))
	}()

	rec, err := NewPublishedRecord(userID, c)
	if err != nil {
		return nil, apierr.Validation("invalid_course", err)
	}
	rows, err := s.courses.Create(dbctx.Context{Ctx: ctx}, []*types.PublishedCourse{rec})
	if err == nil && len(rows) == 0 {
		err = errors.New("no row created")
	}
	if err != nil {
		s.log.Error("publish failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to save course to library: %w", err)
	}
	created := rows[0]
	s.log.Info("course published", "user_id", userID, "course_id", created.ID, "sections", created.Sections)
	s.emitter.Emit(realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventCoursePublished,
		Data:    map[string]any{"id": created.ID, "title": created.Title},
	})
	return created, nil
}

// NewPublishedRecord builds the stored row. The content goes through a
// JSON round trip so only what survives serialization is kept.
func NewPublishedRecord(userID uuid.UUID, c *types.Course) (*types.PublishedCourse, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode course: %w", err)
	}
	var roundTrip course.Course
	if err := json.Unmarshal(raw, &roundTrip); err != nil {
		return nil, fmt.Errorf("decode course: %w", err)
	}
	content, err := json.Marshal(&roundTrip)
	if err != nil {
		return nil, fmt.Errorf("encode course: %w", err)
	}
	cover := roundTrip.CoverImage
	if cover == "" {
		cover = course.DefaultCoverImage
	}
	return &types.PublishedCourse{
		UserID:      userID,
		Title:       roundTrip.Title,
		Description: roundTrip.Description,
		CoverImage:  cover,
		Duration:    roundTrip.EstimatedDuration,
		Sections:    len(roundTrip.Sections),
		Content:     datatypes.JSON(content),
	}, nil
}

func (s *courseService) ListMine(ctx context.Context, limit int) ([]*types.PublishedCourse, error) {
	userID := ctxutil.UserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.courses.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (s *courseService) Get(ctx context.Context, id uuid.UUID) (*types.PublishedCourse, error) {
	userID := ctxutil.UserID(ctx)
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rec, err := s.courses.GetByID(dbctx.Context{Ctx: ctx}, id)
	if errors.Is(err, repos.ErrCourseNotFound) || (err == nil && rec.UserID != userID) {
		return nil, apierr.NotFound("course_not_found", fmt.Errorf("course %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}
