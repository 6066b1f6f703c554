package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	MethodPBKDF2 = "pbkdf2-sha256"
	MethodBcrypt = "bcrypt"

	DefaultPBKDF2Iterations = 600000
	DefaultBcryptCost       = 10

	pbkdf2KeyLen  = 32
	pbkdf2SaltLen = 16

	// Stored iteration counts above this multiple of the configured count
	// (or of the default, whichever is larger) are rejected unverified.
	maxIterationFactor = 10
)

// CodecParams selects the hashing scheme used for new credentials.
// Verification accepts every supported scheme regardless of Method.
type CodecParams struct {
	Method     string
	Iterations int
	BcryptCost int
}

// CredentialCodec hashes and verifies passwords. It is safe for
// concurrent use.
type CredentialCodec struct {
	params CodecParams
}

func NewCredentialCodec(params CodecParams) *CredentialCodec {
	if params.Method == "" {
		params.Method = MethodPBKDF2
	}
	if params.Iterations <= 0 {
		params.Iterations = DefaultPBKDF2Iterations
	}
	if params.BcryptCost <= 0 {
		params.BcryptCost = DefaultBcryptCost
	}
	return &CredentialCodec{params: params}
}

// Hash derives storable credential material from plaintext using a fresh
// random salt.
//
// PBKDF2 format: $pbkdf2-sha256$i=<iterations>,l=<keylen>$<salt>$<hash>
func (c *CredentialCodec) Hash(plaintext string) (string, error) {
	if c.params.Method == MethodBcrypt {
		hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.params.BcryptCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return string(hash), nil
	}

	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	dk := pbkdf2.Key([]byte(plaintext), salt, c.params.Iterations, pbkdf2KeyLen, sha256.New)
	return fmt.Sprintf("$%s$i=%d,l=%d$%s$%s",
		MethodPBKDF2,
		c.params.Iterations,
		pbkdf2KeyLen,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Verify reports whether plaintext matches stored. Malformed or unknown
// encodings never match.
func (c *CredentialCodec) Verify(plaintext, stored string) bool {
	switch {
	case isBcrypt(stored):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
	case strings.HasPrefix(stored, "$"+MethodPBKDF2+"$"):
		iterations, salt, want, err := parsePBKDF2(stored, c.maxIterations())
		if err != nil {
			return false
		}
		got := pbkdf2.Key([]byte(plaintext), salt, iterations, len(want), sha256.New)
		return subtle.ConstantTimeCompare(got, want) == 1
	default:
		return false
	}
}

// NeedsRehash reports whether stored was produced with a different scheme
// or weaker parameters than the codec is configured for.
func (c *CredentialCodec) NeedsRehash(stored string) bool {
	if c.params.Method == MethodBcrypt {
		if !isBcrypt(stored) {
			return true
		}
		cost, err := bcrypt.Cost([]byte(stored))
		return err != nil || cost < c.params.BcryptCost
	}

	iterations, _, hash, err := parsePBKDF2(stored, c.maxIterations())
	if err != nil {
		return true
	}
	return iterations < c.params.Iterations || len(hash) < pbkdf2KeyLen
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}

func (c *CredentialCodec) maxIterations() int {
	return maxIterationFactor * max(c.params.Iterations, DefaultPBKDF2Iterations)
}

func parsePBKDF2(encoded string, maxIterations int) (int, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != MethodPBKDF2 {
		return 0, nil, nil, fmt.Errorf("invalid pbkdf2 hash format")
	}

	iterations, keyLen := 0, 0
	for _, kv := range strings.Split(parts[2], ",") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return 0, nil, nil, fmt.Errorf("invalid pbkdf2 parameter %q", kv)
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, nil, nil, err
		}
		switch key {
		case "i":
			iterations = n
		case "l":
			keyLen = n
		}
	}
	if iterations <= 0 || iterations > maxIterations {
		return 0, nil, nil, fmt.Errorf("invalid pbkdf2 iteration count %d", iterations)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(salt) == 0 {
		return 0, nil, nil, fmt.Errorf("invalid pbkdf2 salt")
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(hash) == 0 || (keyLen != 0 && keyLen != len(hash)) {
		return 0, nil, nil, fmt.Errorf("invalid pbkdf2 digest")
	}
	return iterations, salt, hash, nil
}
