// Package auth implements the credential scheme: salted, iterated PBKDF2
// in a self-describing encoding so the stored credential alone is enough
// to verify it, and future scheme upgrades can coexist with old rows.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	schemePrefix      = "pbkdf2:sha256"
	defaultIterations = 600000
	saltLength        = 16
	keyLength         = 32
)

// HashPassword derives a credential from the plaintext. The result encodes
// its own scheme, iteration count and salt:
//
//	pbkdf2:sha256:<iterations>$<salt>$<hexdigest>
func HashPassword(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	saltHex := hex.EncodeToString(salt)
	key := pbkdf2.Key([]byte(plaintext), []byte(saltHex), defaultIterations, keyLength, sha256.New)

	return fmt.Sprintf("%s:%d$%s$%s", schemePrefix, defaultIterations, saltHex, hex.EncodeToString(key)), nil
}

// CheckPassword reports whether the plaintext matches the stored
// credential. Malformed or unsupported credentials fail closed: the
// answer is false, never an error a caller could mistake for success.
func CheckPassword(plaintext, credential string) bool {
	iterations, salt, digest, ok := parseCredential(credential)
	if !ok {
		return false
	}

	want, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(plaintext), []byte(salt), iterations, len(want), sha256.New)
	return hmac.Equal(got, want)
}

func parseCredential(credential string) (iterations int, salt, digest string, ok bool) {
	if !strings.HasPrefix(credential, schemePrefix+":") {
		return 0, "", "", false
	}

	parts := strings.Split(strings.TrimPrefix(credential, schemePrefix+":"), "$")
	if len(parts) != 3 {
		return 0, "", "", false
	}

	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 {
		return 0, "", "", false
	}
	if parts[1] == "" || parts[2] == "" {
		return 0, "", "", false
	}

	return iterations, parts[1], parts[2], true
}
