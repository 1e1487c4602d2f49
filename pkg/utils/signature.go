package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// GetMessageDigestOrSignature computes the hex-encoded HMAC-SHA256 of the
// message, the scheme Meta uses for the X-Hub-Signature-256 webhook header.
func GetMessageDigestOrSignature(message, key []byte) (string, error) {
	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(message); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// ValidateSignature compares a received "sha256=<hex>" header value against
// the expected digest of body in constant time.
func ValidateSignature(body []byte, key []byte, header string) bool {
	received := strings.TrimPrefix(header, "sha256=")
	expected, err := GetMessageDigestOrSignature(body, key)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(received), []byte(expected))
}
