package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"galaxyinn/backend/internal/domain"
)

// UserDirectory is the slice of the service the auth layer needs.
type UserDirectory interface {
	Authenticate(ctx context.Context, username string, pin string) (domain.UserView, error)
	UserByUsername(ctx context.Context, username string) (domain.UserView, error)
}

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	required bool
	users    UserDirectory
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	UserID int    `json:"uid"`
	Role   string `json:"role"`
}

// defaultActorUsername is the account requests act as when auth is not required.
const defaultActorUsername = "admin"

func NewAuthManager(secret string, tokenTTL time.Duration, required bool, users UserDirectory) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		required: required,
		users:    users,
	}
}

func (a *AuthManager) Required() bool {
	return a.required
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := a.users.Authenticate(ctx, req.Username, req.PIN)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(user, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		User:        user,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{UserID: claims.UserID, Username: sub, Role: claims.Role}, nil
}

// DefaultActor resolves the seeded admin for unauthenticated mode.
func (a *AuthManager) DefaultActor(ctx context.Context) domain.Actor {
	user, err := a.users.UserByUsername(ctx, defaultActorUsername)
	if err != nil {
		return domain.Actor{UserID: 1, Username: defaultActorUsername, Role: domain.RoleAdmin}
	}
	return domain.Actor{UserID: user.ID, Username: user.Username, Role: domain.RoleAdmin}
}

func (a *AuthManager) sign(user domain.UserView, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.Username,
			ID:        strconv.Itoa(user.ID) + "-" + strconv.FormatInt(time.Now().UnixNano(), 36),
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "galaxy-inn",
		},
		UserID: user.ID,
		Role:   user.Role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}
