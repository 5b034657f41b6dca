package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/gophertalk/feed-service/internal/adapters/transport/http/dto"
	"github.com/gophertalk/feed-service/internal/domain/auth/hash"
	"github.com/gophertalk/feed-service/internal/domain/auth/jwt"
	"github.com/gophertalk/feed-service/internal/domain/auth/model"
	"github.com/gophertalk/feed-service/internal/domain/auth/repo"
	"github.com/gophertalk/feed-service/internal/domain/clock"
	customErrors "github.com/gophertalk/feed-service/internal/domain/errors"
)

// bcrypt rejects longer inputs.
const maxPasswordBytes = 72

type authService struct {
	users  repo.CredentialStore
	hasher hash.PasswordHasher
	tokens jwt.TokenIssuer
	clock  clock.Clock
	v      *validator.Validate

	dummyOnce sync.Once
	dummyHash string
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.TokenPair, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
}

func New(
	users repo.CredentialStore,
	hasher hash.PasswordHasher,
	tokens jwt.TokenIssuer,
	clk clock.Clock,
	v *validator.Validate,
) Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if v == nil {
		v = validator.New()
	}
	return &authService{users: users, hasher: hasher, tokens: tokens, clock: clk, v: v}
}

// Register relies on the store's unique constraint instead of a lookup, so
// two concurrent registrations of one name cannot both succeed.
func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.TokenPair, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}
	if len(in.Password) > maxPasswordBytes {
		return model.TokenPair{}, customErrors.NewInvalidArgument("password is too long")
	}

	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	user, err := a.users.InsertUser(ctx, model.User{
		Username:     in.Username,
		PasswordHash: passwordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    a.clock.Now(),
	})
	if err != nil {
		if customErrors.IsAlreadyExists(err) {
			return model.TokenPair{}, customErrors.ErrUserAlreadyExists
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	return a.issue(user.ID)
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.users.FindUserByUsername(ctx, strings.TrimSpace(in.Username))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// burn a verification so unknown names cost the same as wrong passwords
		_, _ = a.hasher.Verify(in.Password, a.dummy())
		return model.TokenPair{}, fmt.Errorf("%w: %w", customErrors.ErrInvalidCredentials, customErrors.ErrUserNotFound)
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	// registration caps passwords, so a longer one can never match
	if len(in.Password) > maxPasswordBytes {
		_, _ = a.hasher.Verify(in.Password[:maxPasswordBytes], a.dummy())
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	ok, err := a.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	return a.issue(user.ID)
}

func (a *authService) Refresh(_ context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	uid, err := a.tokens.VerifyRefresh(in.RefreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}
	return a.issue(uid)
}

func (a *authService) issue(uid int64) (model.TokenPair, error) {
	pair, err := a.tokens.Mint(uid, a.clock.Now())
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Mint")
	}
	return pair, nil
}

func (a *authService) dummy() string {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = a.hasher.Hash("gophertalk-dummy-password")
	})
	return a.dummyHash
}
