package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/adaptedu-backend/internal/data/repos/auth"
	"github.com/yungbote/adaptedu-backend/internal/data/repos/testutil"
	"github.com/yungbote/adaptedu-backend/internal/data/repos/user"
	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
)

func newTestAuth(t *testing.T) AuthService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewAuthService(db, log, user.NewUserRepo(db, log), auth.NewUserTokenRepo(db, log), "test-secret", time.Hour, 24*time.Hour)
}

func register(t *testing.T, as AuthService, email string) {
	t.Helper()
	u := &types.User{Email: email, Password: "Secret123", FirstName: "Ada", LastName: "Learner"}
	mustNoErr(t, "register", as.RegisterUser(context.Background(), u))
}

func TestAuthLoginAndTokenContext(t *testing.T) {
	as := newTestAuth(t)
	register(t, as, "  Ada@Example.com ")

	access, refresh, err := as.LoginUser(context.Background(), "ada@example.com", "Secret123")
	mustNoErr(t, "login", err)
	if access == "" || refresh == "" {
		t.Fatalf("expected both tokens")
	}
	ctx, err := as.SetContextFromToken(context.Background(), access)
	mustNoErr(t, "set context", err)
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil || rd.RefreshToken != refresh {
		t.Fatalf("request data not attached: %+v", rd)
	}
}

func TestAuthRejectsBadPasswordAndDuplicateEmail(t *testing.T) {
	as := newTestAuth(t)
	register(t, as, "ada@example.com")

	_, _, err := as.LoginUser(context.Background(), "ada@example.com", "secret123")
	if status, code := apierr.StatusCode(err); status != http.StatusUnauthorized || code != "invalid_credentials" {
		t.Fatalf("bad password: want=401/invalid_credentials got=%d/%s", status, code)
	}

	dup := &types.User{Email: "ADA@example.com", Password: "x", FirstName: "A", LastName: "B"}
	if status, _ := apierr.StatusCode(as.RegisterUser(context.Background(), dup)); status != http.StatusConflict {
		t.Fatalf("duplicate email: want=409 got=%d", status)
	}
}

func TestAuthRefreshRotatesAndLogoutEndsSession(t *testing.T) {
	as := newTestAuth(t)
	register(t, as, "ada@example.com")
	access, refresh, err := as.LoginUser(context.Background(), "ada@example.com", "Secret123")
	mustNoErr(t, "login", err)

	refreshCtx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{RefreshToken: refresh})
	access2, refresh2, err := as.RefreshUser(refreshCtx)
	mustNoErr(t, "refresh", err)
	if refresh2 == refresh {
		t.Fatalf("refresh token was not rotated")
	}
	if _, _, err := as.RefreshUser(refreshCtx); err == nil {
		t.Fatalf("old refresh token must not be reusable")
	}
	if _, err := as.SetContextFromToken(context.Background(), access); err == nil {
		t.Fatalf("access token of the rotated session must be rejected")
	}

	ctx, err := as.SetContextFromToken(context.Background(), access2)
	mustNoErr(t, "set context", err)
	mustNoErr(t, "logout", as.LogoutUser(ctx))
	if _, err := as.SetContextFromToken(context.Background(), access2); err == nil {
		t.Fatalf("logged out token must be rejected")
	}
}
