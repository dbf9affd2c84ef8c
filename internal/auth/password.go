package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned by PasswordHasher.Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordHasher turns a plaintext password into the string kept in the local
// registry and checks a login attempt against it.
//
// The Service never compares passwords itself; swapping the hasher changes how
// credentials are stored without touching any call site.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify returns nil on a match and ErrPasswordMismatch otherwise.
	Verify(stored, plaintext string) error
}

// PlaintextHasher stores passwords as given. It is the default and matches
// registries written before hashing was configurable.
type PlaintextHasher struct{}

func (PlaintextHasher) Hash(plaintext string) (string, error) {
	return plaintext, nil
}

func (PlaintextHasher) Verify(stored, plaintext string) error {
	if subtle.ConstantTimeCompare([]byte(stored), []byte(plaintext)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// DefaultBcryptCost is the bcrypt work factor used by NewBcryptHasher.
const DefaultBcryptCost = 12

// maxBcryptPasswordBytes is bcrypt's input limit. Longer inputs would be
// silently truncated, so they are rejected instead.
const maxBcryptPasswordBytes = 72

// BcryptHasher stores salted bcrypt hashes:
//
//	$2a$12$<22-char salt><31-char hash>
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a BcryptHasher with DefaultBcryptCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: DefaultBcryptCost}
}

// NewBcryptHasherWithCost lets tests use bcrypt.MinCost.
func NewBcryptHasherWithCost(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (b *BcryptHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxBcryptPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxBcryptPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify uses bcrypt's constant-time comparison. A stored value that is not a
// bcrypt hash (for example a plaintext registry entry) never matches.
func (b *BcryptHasher) Verify(stored, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("%w: %v", ErrPasswordMismatch, err)
}

// NewHasher returns the hasher for a FITNESS_PASSWORD_HASHING scheme name.
func NewHasher(scheme string) (PasswordHasher, error) {
	switch scheme {
	case "", "plain":
		return PlaintextHasher{}, nil
	case "bcrypt":
		return NewBcryptHasher(), nil
	default:
		return nil, fmt.Errorf("auth: unknown password hashing scheme %q", scheme)
	}
}
