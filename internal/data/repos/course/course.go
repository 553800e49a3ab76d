package course

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/platform/dbctx"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("course not found")

type CourseRepo interface {
	Create(dbc dbctx.Context, courses []*types.PublishedCourse) ([]*types.PublishedCourse, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PublishedCourse, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.PublishedCourse, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (cr *courseRepo) Create(dbc dbctx.Context, courses []*types.PublishedCourse) ([]*types.PublishedCourse, error) {
	if len(courses) == 0 {
		return []*types.PublishedCourse{}, nil
	}
	if err := dbc.DB(cr.db).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (cr *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PublishedCourse, error) {
	var out types.PublishedCourse
	err := dbc.DB(cr.db).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (cr *courseRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.PublishedCourse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var results []*types.PublishedCourse
	if err := dbc.DB(cr.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if err := dbc.DB(cr.db).
		Model(&types.PublishedCourse{}).
		Where("user_id = ?", userID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
