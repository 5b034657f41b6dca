package model

import (
	"time"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// TokenPair is minted from a single instant for a single subject.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	UserID       int64
	IssuedAt     time.Time
}
