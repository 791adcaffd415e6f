// internal/membership/token_test.go
package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	user := &User{ID: 7, Role: RoleLibrarian}

	raw, err := SignToken(secret, user)
	require.NoError(t, err)

	claims, err := ParseToken(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, string(RoleLibrarian), claims.Role)
}

func TestParseTokenWrongSecret(t *testing.T) {
	raw, err := SignToken([]byte("secret-a"), &User{ID: 1, Role: RoleReader})
	require.NoError(t, err)

	_, err = ParseToken([]byte("secret-b"), raw)
	assert.Error(t, err)
}

func TestParseTokenGarbage(t *testing.T) {
	_, err := ParseToken([]byte("secret"), "not.a.token")
	assert.Error(t, err)
}
