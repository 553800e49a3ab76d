package course

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/platform/dbctx"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

// cachedCourseRepo reads single courses through Redis. Published courses
// are never mutated, so entries only age out by TTL.
type cachedCourseRepo struct {
	CourseRepo
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewCachedCourseRepo(inner CourseRepo, rdb *goredis.Client, ttl time.Duration, baseLog *logger.Logger) CourseRepo {
	if rdb == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &cachedCourseRepo{
		CourseRepo: inner,
		rdb:        rdb,
		ttl:        ttl,
		log:        baseLog.With("repo", "CachedCourseRepo"),
	}
}

func cacheKey(id uuid.UUID) string { return "course:detail:" + id.String() }

func (r *cachedCourseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PublishedCourse, error) {
	// Reads inside a transaction must see uncommitted rows, skip the cache.
	if dbc.Tx != nil || dbc.Ctx == nil {
		return r.CourseRepo.GetByID(dbc, id)
	}
	key := cacheKey(id)
	if val, err := r.rdb.Get(dbc.Ctx, key).Bytes(); err == nil {
		var c types.PublishedCourse
		if json.Unmarshal(val, &c) == nil {
			return &c, nil
		}
	} else if err != goredis.Nil {
		r.log.Warn("course cache read failed", "error", err)
	}

	c, err := r.CourseRepo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if data, mErr := json.Marshal(c); mErr == nil {
		if sErr := r.rdb.Set(dbc.Ctx, key, data, r.ttl).Err(); sErr != nil {
			r.log.Warn("course cache write failed", "error", sErr)
		}
	}
	return c, nil
}
