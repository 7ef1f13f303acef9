package orgauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	passwordLower   = "abcdefghijklmnopqrstuvwxyz"
	passwordUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordDigits  = "0123456789"
	passwordSymbols = "!@#$%^&*"

	// MinPasswordLength leaves room for one character of each class
	MinPasswordLength = 4
)

// ErrPasswordTooShort is returned for generation lengths below
// MinPasswordLength. This is a configuration error, not a runtime one.
var ErrPasswordTooShort = goerrors.New("password length too short for complexity policy", goerrors.CategoryValidation).
	WithTextCode("credential_length_too_short").
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode("credential_empty").
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the digest comparison failure
var ErrMismatchedHashAndPassword = goerrors.New("password does not match digest", goerrors.CategoryAuth).
	WithTextCode("credential_mismatch").
	WithCode(goerrors.CodeUnauthorized)

// GeneratePassword builds a random password of the requested length that is
// guaranteed to contain at least one lowercase letter, one uppercase
// letter, one digit, and one symbol. The guaranteed characters are shuffled
// into random positions.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", ErrPasswordTooShort.WithMetadata(map[string]any{
			"length": length,
			"min":    MinPasswordLength,
		})
	}

	out := make([]byte, 0, length)

	for _, class := range []string{passwordLower, passwordUpper, passwordDigits, passwordSymbols} {
		c, err := randomByte(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	all := passwordLower + passwordUpper + passwordDigits + passwordSymbols
	for len(out) < length {
		c, err := randomByte(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	if err := shuffleBytes(out); err != nil {
		return "", err
	}

	return string(out), nil
}

func randomByte(alphabet string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to draw random character")
	}
	return alphabet[idx.Int64()], nil
}

func shuffleBytes(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to shuffle password")
		}
		b[i], b[j.Int64()] = b[j.Int64()], b[i]
	}
	return nil
}

// CredentialExpiry computes the expiry timestamp for a credential issued at
// the given time. Used uniformly for provisioning and password resets.
func CredentialExpiry(issuedAt time.Time, ttl time.Duration) time.Time {
	return issuedAt.Add(ttl)
}

// SHA256Authenticator computes unsalted hex-encoded SHA-256 digests.
//
// The digest is deterministic so login checks are a straight equality
// compare against the stored column, which keeps rows written by earlier
// deployments verifying. There is no per-identity salt and no slow KDF:
// treat this as a compatibility hasher and prefer BcryptAuthenticator
// wherever the stored digests can be migrated.
type SHA256Authenticator struct{}

func (SHA256Authenticator) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (a SHA256Authenticator) ComparePasswordAndHash(password, hash string) error {
	digest, err := a.HashPassword(password)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(digest), []byte(hash)) != 1 {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// BcryptAuthenticator hashes passwords with bcrypt. New deployments that do
// not need digest compatibility should use this one.
type BcryptAuthenticator struct {
	// Cost is the bcrypt work factor; zero means bcrypt.DefaultCost
	Cost int
}

func (b BcryptAuthenticator) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

func (b BcryptAuthenticator) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password")
	}
	return nil
}

var (
	_ PasswordAuthenticator = SHA256Authenticator{}
	_ PasswordAuthenticator = BcryptAuthenticator{}
)
