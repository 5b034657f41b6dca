package hasher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"

	"github.com/gophertalk/feed-service/internal/domain/auth/hash"
)

var DefaultArgonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type Argon2id struct {
	params *argon2id.Params
	pepper string
}

func NewArgon2id(pepper string, params *argon2id.Params) *Argon2id {
	if params == nil {
		params = DefaultArgonParams
	}
	return &Argon2id{params: params, pepper: pepper}
}

func (a *Argon2id) Hash(plaintext string) (string, error) {
	return argon2id.CreateHash(plaintext+a.pepper, a.params)
}

func (a *Argon2id) Verify(plaintext, encoded string) (bool, error) {
	return argon2id.ComparePasswordAndHash(plaintext+a.pepper, encoded)
}

// Bcrypt is unpeppered so existing bcrypt hashes verify as is.
type Bcrypt struct {
	cost int
}

func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b *Bcrypt) Verify(plaintext, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, err
	}
}

// Multi hashes with the primary algorithm and verifies by hash prefix, so
// stored bcrypt and argon2id hashes both keep working.
type Multi struct {
	primary hash.PasswordHasher
	argon   *Argon2id
	bcrypt  *Bcrypt
}

func NewMulti(primary string, argon *Argon2id, bc *Bcrypt) (*Multi, error) {
	m := &Multi{argon: argon, bcrypt: bc}
	switch primary {
	case "argon2id", "":
		m.primary = argon
	case "bcrypt":
		m.primary = bc
	default:
		return nil, fmt.Errorf("unknown password hasher %q", primary)
	}
	return m, nil
}

func (m *Multi) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

func (m *Multi) Verify(plaintext, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return m.argon.Verify(plaintext, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return m.bcrypt.Verify(plaintext, encoded)
	default:
		return false, errors.New("unrecognised password hash format")
	}
}
