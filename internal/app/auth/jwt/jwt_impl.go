package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	jwt2 "github.com/gophertalk/feed-service/internal/domain/auth/jwt"
	"github.com/gophertalk/feed-service/internal/domain/auth/model"
	"github.com/gophertalk/feed-service/internal/domain/clock"
	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
	"github.com/gophertalk/feed-service/internal/infra/config"
)

var signingMethod = jwt.SigningMethodHS256

type JwtUtilImpl struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	clock         clock.Clock
}

func NewJWTUtil(cfg *config.Config, clk clock.Clock) (*JwtUtilImpl, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, customErrors.WrapInternal(errors.New("empty secret"), "NewJWTUtil")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, customErrors.WrapInternal(errors.New("access and refresh secrets are equal"), "NewJWTUtil")
	}
	if clk == nil {
		clk = clock.Real{}
	}

	return &JwtUtilImpl{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
		clock:         clk,
	}, nil
}

// Mint signs both tokens from the same instant and subject.
func (j *JwtUtilImpl) Mint(userID int64, now time.Time) (model.TokenPair, error) {
	at, err := j.sign(userID, now, j.accessTTL, j.accessSecret)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "sign access token")
	}
	rt, err := j.sign(userID, now, j.refreshTTL, j.refreshSecret)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "sign refresh token")
	}

	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    j.accessTTL,
		RefreshTTL:   j.refreshTTL,
		UserID:       userID,
		IssuedAt:     now,
	}, nil
}

func (j *JwtUtilImpl) sign(userID int64, now time.Time, ttl time.Duration, secret []byte) (string, error) {
	claims := jwt2.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString(secret)
}

func (j *JwtUtilImpl) VerifyAccess(raw string) (int64, error) {
	return j.Verify(raw, j.accessSecret)
}

func (j *JwtUtilImpl) VerifyRefresh(raw string) (int64, error) {
	return j.Verify(raw, j.refreshSecret)
}

// Verify checks signature first, then expiry against the injected clock.
// A token is expired once exp <= now.
func (j *JwtUtilImpl) Verify(raw string, secret []byte) (int64, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.clock.Now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &jwt2.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return secret, nil
	}, opts...)

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, customErrors.ErrExpiredToken
	case err != nil || !token.Valid:
		return 0, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt2.Claims)
	if !ok {
		return 0, customErrors.ErrInvalidToken
	}

	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || uid <= 0 {
		return 0, customErrors.ErrInvalidToken
	}
	return uid, nil
}
