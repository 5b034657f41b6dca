package repo

import (
	"context"

	"github.com/gophertalk/feed-service/internal/domain/auth/model"
)

type CredentialStore interface {
	// InsertUser assigns the id. A taken username yields ErrUserAlreadyExists.
	InsertUser(ctx context.Context, u model.User) (model.User, error)

	// FindUserByUsername yields ErrUserNotFound when absent.
	FindUserByUsername(ctx context.Context, username string) (model.User, error)
}
