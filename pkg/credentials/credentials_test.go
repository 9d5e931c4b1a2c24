package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Minimum cost keeps the bcrypt work factor cheap in tests.
func testVault() *Vault {
	return NewVault(bcrypt.MinCost)
}

func TestVault_HashAndVerify(t *testing.T) {
	v := testVault()

	hash, err := v.Hash("s3cret-passw0rd")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotContains(t, string(hash), "s3cret-passw0rd", "hash must not embed the plaintext")

	assert.True(t, v.Verify(hash, "s3cret-passw0rd"))
	assert.False(t, v.Verify(hash, "wrong-password"))
	assert.False(t, v.Verify(hash, ""))
}

func TestVault_HashesAreSalted(t *testing.T) {
	v := testVault()

	first, err := v.Hash("same-password")
	require.NoError(t, err)
	second, err := v.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password must differ")
	assert.True(t, v.Verify(first, "same-password"))
	assert.True(t, v.Verify(second, "same-password"))
}

func TestVault_VerifyRejectsGarbageHash(t *testing.T) {
	v := testVault()

	assert.False(t, v.Verify([]byte("not a bcrypt hash"), "anything"))
	assert.False(t, v.Verify(nil, "anything"))
}

func TestNewVault_CostFallback(t *testing.T) {
	v := NewVault(0)

	hash, err := v.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost(hash)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
