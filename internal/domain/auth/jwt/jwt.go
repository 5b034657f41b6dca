package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gophertalk/feed-service/internal/domain/auth/model"
)

type Claims struct {
	jwt.RegisteredClaims
}

type TokenIssuer interface {
	Mint(userID int64, now time.Time) (model.TokenPair, error)
	VerifyAccess(token string) (int64, error)
	VerifyRefresh(token string) (int64, error)
}

// AccessVerifier is the slice of TokenIssuer the routing layer needs.
type AccessVerifier interface {
	VerifyAccess(token string) (int64, error)
}
