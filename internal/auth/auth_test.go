package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/internal/auth"
)

func TestService_GenerateAndValidate(t *testing.T) {
	svc := auth.NewService("test-secret", time.Hour)

	token, err := svc.GenerateToken(7, "analyst")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "analyst", claims.Username)
	assert.Equal(t, "dpf-rul", claims.Issuer)
}

func TestService_ValidateToken(t *testing.T) {
	valid, err := auth.NewService("test-secret", time.Hour).GenerateToken(1, "analyst")
	require.NoError(t, err)
	expired, err := auth.NewService("test-secret", -time.Hour).GenerateToken(1, "analyst")
	require.NoError(t, err)
	otherIssuer, err := auth.NewService("test-secret", time.Hour).WithIssuer("someone-else").GenerateToken(1, "analyst")
	require.NoError(t, err)

	tests := []struct {
		name    string
		secret  string
		token   string
		wantErr error
	}{
		{"garbage", "test-secret", "invalid-token", auth.ErrInvalidToken},
		{"wrong secret", "other-secret", valid, auth.ErrInvalidToken},
		{"expired", "test-secret", expired, auth.ErrExpiredToken},
		{"wrong issuer", "test-secret", otherIssuer, auth.ErrInvalidToken},
		{"valid", "test-secret", valid, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.NewService(tt.secret, time.Hour).ValidateToken(tt.token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := auth.HashPassword("mypassword123")
	require.NoError(t, err)

	assert.True(t, auth.CheckPassword("mypassword123", hash))
	assert.False(t, auth.CheckPassword("wrongpassword", hash))
	assert.False(t, auth.CheckPassword("mypassword123", "not-a-hash"))
}
