package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testCodec() *CredentialCodec {
	return NewCredentialCodec(CodecParams{Method: MethodPBKDF2, Iterations: 1000})
}

func TestCredentialCodecRoundTrip(t *testing.T) {
	codec := testCodec()

	for _, password := range []string{"Str0ng!Pass99", "abc", "", "pässwörd-ü", strings.Repeat("x", 200)} {
		first, err := codec.Hash(password)
		require.NoError(t, err)
		second, err := codec.Hash(password)
		require.NoError(t, err)

		assert.NotEqual(t, first, second, "salt must differ between hashes")
		assert.NotEqual(t, password, first)
		assert.True(t, codec.Verify(password, first))
		assert.True(t, codec.Verify(password, second))
		assert.False(t, codec.Verify(password+"!", first))
	}
}

func TestCredentialCodecFormat(t *testing.T) {
	hash, err := testCodec().Hash("Str0ng!Pass99")
	require.NoError(t, err)

	parts := strings.Split(hash, "$")
	require.Len(t, parts, 5)
	assert.Equal(t, "pbkdf2-sha256", parts[1])
	assert.Equal(t, "i=1000,l=32", parts[2])
}

func TestCredentialCodecRejectsMalformed(t *testing.T) {
	codec := testCodec()
	valid, err := codec.Hash("secret")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	malformed := []string{
		"",
		"secret",
		"$pbkdf2-sha256$",
		"$pbkdf2-sha256$i=1000,l=32$$",
		"$pbkdf2-sha256$i=0,l=32$" + parts[3] + "$" + parts[4],
		"$pbkdf2-sha256$i=abc,l=32$" + parts[3] + "$" + parts[4],
		"$pbkdf2-sha256$i=1000,l=32$!!!$" + parts[4],
		"$pbkdf2-sha256$i=1000,l=16$" + parts[3] + "$" + parts[4],
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$2b$10$notreallyabcryptstring",
	}
	for _, stored := range malformed {
		assert.False(t, codec.Verify("secret", stored), "stored=%q", stored)
	}
}

func TestCredentialCodecRejectsExcessiveIterations(t *testing.T) {
	codec := testCodec()
	valid, err := codec.Hash("secret")
	require.NoError(t, err)
	parts := strings.Split(valid, "$")

	stored := "$pbkdf2-sha256$i=999999999,l=32$" + parts[3] + "$" + parts[4]
	assert.False(t, codec.Verify("secret", stored))
	assert.True(t, codec.NeedsRehash(stored))

	_, _, _, err = parsePBKDF2(stored, codec.maxIterations())
	assert.Error(t, err)
	_, _, _, err = parsePBKDF2(valid, codec.maxIterations())
	assert.NoError(t, err)
}

func TestCredentialCodecBcrypt(t *testing.T) {
	codec := NewCredentialCodec(CodecParams{Method: MethodBcrypt, BcryptCost: bcrypt.MinCost})

	hash, err := codec.Hash("Str0ng!Pass99")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, codec.Verify("Str0ng!Pass99", hash))
	assert.False(t, codec.Verify("wrong", hash))

	// pbkdf2 hashes still verify under a bcrypt-configured codec
	pbkdf2Hash, err := testCodec().Hash("Str0ng!Pass99")
	require.NoError(t, err)
	assert.True(t, codec.Verify("Str0ng!Pass99", pbkdf2Hash))
}

func TestCredentialCodecNeedsRehash(t *testing.T) {
	weak := NewCredentialCodec(CodecParams{Method: MethodPBKDF2, Iterations: 500})
	strong := testCodec()
	bcryptCodec := NewCredentialCodec(CodecParams{Method: MethodBcrypt, BcryptCost: bcrypt.MinCost})

	weakHash, err := weak.Hash("pw")
	require.NoError(t, err)
	strongHash, err := strong.Hash("pw")
	require.NoError(t, err)
	bcryptHash, err := bcryptCodec.Hash("pw")
	require.NoError(t, err)

	assert.True(t, strong.NeedsRehash(weakHash))
	assert.False(t, strong.NeedsRehash(strongHash))
	assert.True(t, strong.NeedsRehash(bcryptHash))
	assert.True(t, strong.NeedsRehash("garbage"))
	assert.True(t, bcryptCodec.NeedsRehash(strongHash))
	assert.False(t, bcryptCodec.NeedsRehash(bcryptHash))
}
