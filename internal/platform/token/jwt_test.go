package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "agapay/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-signing-key", "agapay")
	userID := uuid.New()

	tokenString, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewService("test-signing-key", "agapay")

	tokenString, err := svc.GenerateAccessToken(uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.CodeUnauthorized))
}

func TestValidateWrongKey(t *testing.T) {
	issuer := NewService("key-one", "agapay")
	verifier := NewService("key-two", "agapay")

	tokenString, err := issuer.GenerateAccessToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(tokenString)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.CodeUnauthorized))
}
