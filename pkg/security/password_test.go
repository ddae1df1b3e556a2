package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderportal-backend/pkg/config"
	"github.com/angelmondragon/orderportal-backend/pkg/security"
)

var fastParams = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("contraseña-segura", fastParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := security.VerifyPassword("contraseña-segura", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = security.VerifyPassword("otra", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := security.HashPassword("contraseña-segura", fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts must differ")
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := security.HashPassword("", fastParams)
	require.Error(t, err)
}

func TestVerifyPasswordBadHash(t *testing.T) {
	cases := map[string]error{
		"not-a-hash":                          security.ErrInvalidHash,
		"$argon2id$v=16$m=8,t=1,p=1$c2FsdA$aGFzaA": security.ErrIncompatibleVersion,
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdA$aGFzaA": security.ErrInvalidHash,
		"$argon2id$v=19$m=8,t=1,p=1$!!$aGFzaA":     security.ErrInvalidHash,
	}
	for encoded, want := range cases {
		_, err := security.VerifyPassword("irrelevant", encoded)
		assert.ErrorIs(t, err, want, encoded)
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, err := security.HashPassword("x", fastParams)
	require.NoError(t, err)

	assert.False(t, security.NeedsRehash(hash, fastParams))

	stronger := fastParams
	stronger.ArgonMemoryKB = 65536
	assert.True(t, security.NeedsRehash(hash, stronger))

	assert.True(t, security.NeedsRehash("garbage", fastParams))
}
