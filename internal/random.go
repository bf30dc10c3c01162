package internal

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateBlob returns blobLen random bytes encoded as url-safe base64
// without padding. Used for CSRF tokens.
func GenerateBlob(blobLen int) (string, error) {
	b := make([]byte, blobLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
