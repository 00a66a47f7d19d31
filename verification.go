package auth

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// EmailVerificationHash derives the hash embedded in verification links.
// It is a link-integrity check tied to the address, not a secret; links
// signed into emails stay valid across deployments because the hash depends
// only on the address itself.
func EmailVerificationHash(email string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return hex.EncodeToString(sum[:])
}

// VerifyEmailHash compares a presented hash against the expected one in
// constant time.
func VerifyEmailHash(email, presented string) bool {
	expected := EmailVerificationHash(email)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
