package course

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"github.com/yungbote/adaptedu-backend/internal/data/repos/testutil"
	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/platform/dbctx"
)

func TestCachedCourseRepoReadThrough(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	db := testutil.DB(t)
	u := testutil.SeedUser(t, ctx, db, "cache-"+uuid.NewString()+"@example.com")
	inner := NewCourseRepo(db, testutil.Logger(t))
	repo := NewCachedCourseRepo(inner, rdb, time.Minute, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}

	c := &types.PublishedCourse{UserID: u.ID, Title: "Cached", Sections: 1, Content: datatypes.JSON(`{}`)}
	if _, err := inner.Create(dbc, []*types.PublishedCourse{c}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Del(ctx, cacheKey(c.ID)).Err() })

	if _, err := repo.GetByID(dbc, c.ID); err != nil {
		t.Fatalf("GetByID(first): %v", err)
	}
	if n, _ := rdb.Exists(ctx, cacheKey(c.ID)).Result(); n != 1 {
		t.Fatalf("expected cache entry after first read")
	}

	// Remove the row; the cached copy must still be served.
	if err := db.Unscoped().Delete(&types.PublishedCourse{}, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := repo.GetByID(dbc, c.ID)
	if err != nil {
		t.Fatalf("GetByID(cached): %v", err)
	}
	if got.Title != "Cached" {
		t.Fatalf("cached title: want=Cached got=%s", got.Title)
	}
}
