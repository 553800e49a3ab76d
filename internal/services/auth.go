package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/adaptedu-backend/internal/data/repos"
	types "github.com/yungbote/adaptedu-backend/internal/domain"
	"github.com/yungbote/adaptedu-backend/internal/platform/apierr"
	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/dbctx"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

var (
	ErrInvalidCredentials = apierr.Precondition(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid email or password"))
	ErrUnauthenticated    = apierr.Precondition(http.StatusUnauthorized, "unauthorized", errors.New("you must be logged in"))
)

type AuthService interface {
	RegisterUser(ctx context.Context, user *types.User) error
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func normalizeUser(user *types.User) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.FirstName = strings.TrimSpace(user.FirstName)
	user.LastName = strings.TrimSpace(user.LastName)
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
	if user == nil {
		return apierr.Validation("missing_user", errors.New("no user given"))
	}
	normalizeUser(user)
	switch {
	case user.Email == "":
		return apierr.Validation("missing_email", errors.New("an email is required to register"))
	case user.Password == "":
		return apierr.Validation("missing_password", errors.New("a password is required to register"))
	case user.FirstName == "" || user.LastName == "":
		return apierr.Validation("missing_name", errors.New("first and last name are required to register"))
	}
	exists, err := as.userRepo.EmailExists(dbctx.Context{Ctx: ctx}, user.Email)
	if err != nil {
		return fmt.Errorf("check user email: %w", err)
	}
	if exists {
		return apierr.Precondition(http.StatusConflict, "email_in_use", errors.New("email is already in use"))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hashed)
	user.ID = uuid.New()
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := as.userRepo.Create(dbctx.Context{Ctx: ctx, Tx: tx}, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", "", apierr.Validation("missing_credentials", errors.New("email and password are required to login"))
	}
	users, err := as.userRepo.GetByEmails(dbctx.Context{Ctx: ctx}, []string{email})
	if err != nil {
		return "", "", fmt.Errorf("get user by email: %w", err)
	}
	if len(users) == 0 {
		return "", "", ErrInvalidCredentials
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userTokenRepo.GetByUserIDs(dbc, []uuid.UUID{user.ID})
		if err != nil {
			return fmt.Errorf("check user tokens: %w", err)
		}
		var expired []*types.UserToken
		for _, t := range existing {
			if t != nil && t.ExpiresAt.Before(time.Now()) {
				expired = append(expired, t)
			}
		}
		if err := as.userTokenRepo.FullDeleteByTokens(dbc, expired); err != nil {
			return fmt.Errorf("delete expired user tokens: %w", err)
		}
		accessToken, refreshToken, err = as.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		as.log.Warn("login failed", "error", err)
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", apierr.Validation("missing_refresh_token", errors.New("refresh token not found in request"))
	}

	var accessToken, refreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{rd.RefreshToken})
		if err != nil {
			return fmt.Errorf("fetch refresh token: %w", err)
		}
		if len(found) == 0 || found[0] == nil {
			return ErrUnauthenticated
		}
		existing := found[0]
		if existing.ExpiresAt.Before(time.Now()) {
			if err := as.userTokenRepo.FullDeleteByTokens(dbc, []*types.UserToken{existing}); err != nil {
				return fmt.Errorf("delete expired refresh token: %w", err)
			}
			return apierr.Precondition(http.StatusUnauthorized, "refresh_expired", errors.New("refresh token expired"))
		}
		users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{existing.UserID})
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if len(users) == 0 {
			return ErrUnauthenticated
		}
		accessToken, refreshToken, err = as.issueTokens(dbc, users[0])
		if err != nil {
			return err
		}
		if err := as.userTokenRepo.FullDeleteByTokens(dbc, []*types.UserToken{existing}); err != nil {
			return fmt.Errorf("remove old refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		as.log.Warn("refresh failed", "error", err)
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return ErrUnauthenticated
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByAccessTokens(dbc, []string{rd.TokenString})
		if err != nil {
			return fmt.Errorf("find user token: %w", err)
		}
		if err := as.userTokenRepo.FullDeleteByTokens(dbc, found); err != nil {
			return fmt.Errorf("delete user token: %w", err)
		}
		return nil
	})
}

// issueTokens signs an access token and stores it with a fresh refresh
// token.
func (as *authService) issueTokens(dbc dbctx.Context, user *types.User) (string, string, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return "", "", fmt.Errorf("generate access token: %w", err)
	}
	token := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    time.Now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{token}); err != nil {
		return "", "", fmt.Errorf("create user token: %w", err)
	}
	return access, token.RefreshToken, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken validates the access token and attaches the caller's
// identity. The token must still have a stored session row.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, ErrUnauthenticated
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apierr.Precondition(http.StatusUnauthorized, "invalid_token", fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, apierr.Precondition(http.StatusUnauthorized, "invalid_token", errors.New("invalid or expired JWT token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Precondition(http.StatusUnauthorized, "invalid_token", fmt.Errorf("invalid user id in token: %w", err))
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Context{Ctx: ctx}, []string{tokenString})
	if err != nil {
		return ctx, fmt.Errorf("fetch user token: %w", err)
	}
	if len(found) == 0 || found[0] == nil {
		return ctx, apierr.Precondition(http.StatusUnauthorized, "session_ended", errors.New("session has been logged out"))
	}
	rd := &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: found[0].RefreshToken,
		UserID:       userID,
		SessionID:    found[0].ID,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
