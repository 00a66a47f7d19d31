package auth

import (
	"crypto/rand"
	"math/big"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// SecureRandom generates the unguessable values the package hands out: reset
// secrets and token identifiers.
type SecureRandom interface {
	Token(length int) (string, error)
	TokenID() string
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type cryptoRandom struct{}

// NewSecureRandom returns the default crypto/rand backed generator.
func NewSecureRandom() SecureRandom {
	return cryptoRandom{}
}

// Token returns an alphanumeric secret of the given length.
func (cryptoRandom) Token(length int) (string, error) {
	if length <= 0 {
		return "", goerrors.New("token length must be positive", goerrors.CategoryBadInput)
	}

	max := big.NewInt(int64(len(tokenAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read secure random source")
		}
		out[i] = tokenAlphabet[n.Int64()]
	}

	return string(out), nil
}

// TokenID returns a fresh jti.
func (cryptoRandom) TokenID() string {
	return uuid.NewString()
}

func normalizeSecureRandom(r SecureRandom) SecureRandom {
	if r == nil {
		return cryptoRandom{}
	}
	return r
}
