package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

var (
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrPostNotFound      = fmt.Errorf("post %w", ErrNotFound)
	ErrParentNotFound    = fmt.Errorf("parent post %w", ErrNotFound)
	ErrNotOwner          = fmt.Errorf("%w: post belongs to another user", ErrForbidden)
	ErrUserAlreadyExists = fmt.Errorf("user %w", ErrAlreadyExists)
	ErrExpiredToken      = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

// Kind is the closed set of failure classes the transport maps to a status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindOwnership
	KindConflict
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindOwnership:
		return "ownership"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	default:
		return "internal"
	}
}

// KindOf classifies err. Auth is checked before NotFound so an unknown
// username on login is reported as bad credentials.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case IsInternal(err):
		return KindInternal
	case IsInvalidArgument(err):
		return KindValidation
	case IsInvalidCredentials(err), IsInvalidToken(err):
		return KindAuth
	case IsForbidden(err):
		return KindOwnership
	case IsAlreadyExists(err):
		return KindConflict
	case IsNotFound(err):
		return KindNotFound
	default:
		return KindInternal
	}
}

func NewInvalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

func WrapInternal(err error, context string) error {
	return fmt.Errorf("%w: %s: %v", ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsExpiredToken(err error) bool {
	return errors.Is(err, ErrExpiredToken)
}
