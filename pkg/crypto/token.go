package crypto

import (
	"crypto/rand"
	"encoding/base64"
)

const (
	DefaultTokenLength = 32 // 256 bits
)

// GenerateToken returns an unguessable URL-safe secret of byteLength random
// bytes. Used for sign-on token secrets and session authentication tokens.
func GenerateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	bytes := make([]byte, byteLength)

	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
