package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewMaker("test-secret", time.Hour)

	token, err := maker.GenerateToken("uid-123", "salim", "owner")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-123", claims.UserUID)
	assert.Equal(t, "salim", claims.Username)
	assert.Equal(t, "owner", claims.Role)
}

func TestParseToken_WrongSecret(t *testing.T) {
	maker := NewMaker("test-secret", time.Hour)
	token, err := maker.GenerateToken("uid-123", "salim", "owner")
	require.NoError(t, err)

	other := NewMaker("other-secret", time.Hour)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	maker := NewMaker("test-secret", -time.Minute)
	token, err := maker.GenerateToken("uid-123", "salim", "owner")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}
