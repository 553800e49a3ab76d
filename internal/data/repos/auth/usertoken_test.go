package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/adaptedu-backend/internal/data/repos/testutil"
	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/platform/dbctx"
)

func TestUserTokenRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()

	u := testutil.SeedUser(t, ctx, tx, "tokens@example.com")
	repo := NewUserTokenRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	tok := &types.UserToken{
		ID:           uuid.New(),
		UserID:       u.ID,
		AccessToken:  "access-" + uuid.NewString(),
		RefreshToken: "refresh-" + uuid.NewString(),
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}
	if _, err := repo.Create(dbc, []*types.UserToken{tok}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byUser, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID})
	if err != nil {
		t.Fatalf("GetByUserIDs: %v", err)
	}
	if len(byUser) != 1 || byUser[0].ID != tok.ID {
		t.Fatalf("GetByUserIDs: unexpected result: %+v", byUser)
	}

	byAccess, err := repo.GetByAccessTokens(dbc, []string{tok.AccessToken})
	if err != nil {
		t.Fatalf("GetByAccessTokens: %v", err)
	}
	if len(byAccess) != 1 || byAccess[0].ID != tok.ID {
		t.Fatalf("GetByAccessTokens: unexpected result: %+v", byAccess)
	}

	byRefresh, err := repo.GetByRefreshTokens(dbc, []string{tok.RefreshToken})
	if err != nil {
		t.Fatalf("GetByRefreshTokens: %v", err)
	}
	if len(byRefresh) != 1 || byRefresh[0].ID != tok.ID {
		t.Fatalf("GetByRefreshTokens: unexpected result: %+v", byRefresh)
	}

	if err := repo.FullDeleteByTokens(dbc, []*types.UserToken{tok}); err != nil {
		t.Fatalf("FullDeleteByTokens: %v", err)
	}
	left, err := repo.GetByUserIDs(dbc, []uuid.UUID{u.ID})
	if err != nil {
		t.Fatalf("GetByUserIDs(after delete): %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected tokens deleted, got %d", len(left))
	}
}
