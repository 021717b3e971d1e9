package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

func NewVerificationToken() string {
	return uuid.NewString()
}

// NewState returns a 32 byte url-safe random value for the OAuth state parameter.
func NewState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
