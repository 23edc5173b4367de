package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
)

const tokenIssuer = "leadhub"

var (
	ErrInvalidToken  = errors.New("invalid_token")
	ErrMissingSecret = errors.New("auth_jwt_secret_required")
)

// Claims carries the caller identity inside a session token.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewTokenManager(secret string, ttl time.Duration, clk clock.Clock) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, clock: clk}, nil
}

func ProvideTokenManager(cfg config.Config, clk clock.Clock) (*TokenManager, error) {
	return NewTokenManager(cfg.AuthJWTSecret, cfg.AuthTokenTTL, clk)
}

// Issue signs an HS256 session token for the user.
func (tm *TokenManager) Issue(userID snowflake.ID, role Role) (string, time.Time, error) {
	now := tm.clock.Now()
	expiresAt := now.Add(tm.ttl)
	claims := Claims{
		UserID: userID.String(),
		Role:   role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates the token and returns the caller it names.
func (tm *TokenManager) Parse(tokenStr string) (Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.clock.Now),
	)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}

	role, ok := ParseRole(claims.Role)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || id <= 0 {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: snowflake.ID(id), Role: role}, nil
}
