package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/GehirnInc/crypt/md5_crypt"
	"golang.org/x/crypto/bcrypt"
)

const (
	// SaltLength is the MD5-crypt salt size the mail server expects.
	SaltLength = 8

	defaultRandomLength = 10

	md5CryptPrefix = "$1$"
)

// randomAlphabet leaves out characters that are easy to misread (0, 1, i, l, o, I, L, O).
// Digits appear three times, as in iRedAdmin.
const randomAlphabet = "23456789" + "abcdefghjkmnpqrstuvwxyz" + "23456789" +
	"ABCDEFGHJKLMNPQRSTUVWXYZ" + "23456789"

// GenerateRandomString returns length characters sampled uniformly from
// randomAlphabet. A non-positive length yields 10 characters.
func GenerateRandomString(length int) (string, error) {
	if length <= 0 {
		length = defaultRandomLength
	}

	max := big.NewInt(int64(len(randomAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		b.WriteByte(randomAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// HashPassword trims the plaintext and hashes it with MD5-crypt using a fresh
// salt. The result has the form $1$<salt>$<hash>, which is what Postfix and
// Dovecot authenticate against.
func HashPassword(plain string) (string, error) {
	salt, err := GenerateRandomString(SaltLength)
	if err != nil {
		return "", err
	}
	return hashWithSalt(plain, salt)
}

func hashWithSalt(plain, salt string) (string, error) {
	crypter := md5_crypt.New()
	hash, err := crypter.Generate([]byte(strings.TrimSpace(plain)), []byte(md5CryptPrefix+salt))
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// VerifyPassword checks plain against a stored hash. MD5-crypt and bcrypt
// hashes are understood, with or without a Dovecot scheme prefix such as
// {CRYPT} or {BLF-CRYPT}.
func VerifyPassword(hash, plain string) bool {
	hash = stripScheme(hash)
	key := []byte(strings.TrimSpace(plain))

	switch {
	case strings.HasPrefix(hash, md5CryptPrefix):
		return md5_crypt.New().Verify(hash, key) == nil
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(hash), key) == nil
	default:
		return false
	}
}

// stripScheme removes a leading "{SCHEME}" marker.
func stripScheme(hash string) string {
	if strings.HasPrefix(hash, "{") {
		if end := strings.Index(hash, "}"); end > 0 {
			return hash[end+1:]
		}
	}
	return hash
}
