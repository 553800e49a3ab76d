package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/adaptedu-backend/internal/data/repos/testutil"
	"github.com/yungbote/adaptedu-backend/internal/data/repos/user"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
)

func TestGetMe(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	u := testutil.SeedUser(t, context.Background(), db, "me@example.com")
	svc := NewUserService(log, user.NewUserRepo(db, log))

	me, err := svc.GetMe(userCtx(u.ID))
	mustNoErr(t, "get me", err)
	if me.Email != "me@example.com" {
		t.Fatalf("email: got=%s", me.Email)
	}
	if _, err := svc.GetMe(userCtx(uuid.New())); !apierr.IsKind(err, apierr.KindNotFound) {
		t.Fatalf("unknown user: want not found got=%v", err)
	}
	if _, err := svc.GetMe(context.Background()); err != ErrUnauthenticated {
		t.Fatalf("anonymous: want ErrUnauthenticated got=%v", err)
	}
}
