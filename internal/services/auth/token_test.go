package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/athletearena/internal/dependencies/mocks"
	"github.com/mcoot/athletearena/internal/model"
)

func newTokenService() (*TokenService, *mocks.MockClock) {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewTokenService("test-secret", time.Hour, clk), clk
}

func TestTokenRoundTrip(t *testing.T) {
	tokens, _ := newTokenService()
	user := &model.User{ID: "user-1", Email: "alice@example.com", Role: model.RoleOrganizer}

	token, err := tokens.Issue(user)
	require.NoError(t, err)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Role, claims.Role)
}

func TestTokenExpires(t *testing.T) {
	tokens, clk := newTokenService()
	token, err := tokens.Issue(&model.User{ID: "user-1", Role: model.RoleParticipant})
	require.NoError(t, err)

	clk.Advance(59 * time.Minute)
	_, err = tokens.Verify(token)
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	tokens, clk := newTokenService()
	other := NewTokenService("another-secret", time.Hour, clk)

	token, err := other.Issue(&model.User{ID: "user-1", Role: model.RoleParticipant})
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsTamperedPayload(t *testing.T) {
	tokens, _ := newTokenService()
	token, err := tokens.Issue(&model.User{ID: "user-1", Role: model.RoleParticipant})
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = tokens.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsNoneAlgorithm(t *testing.T) {
	tokens, clk := newTokenService()
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsMissingUserID(t *testing.T) {
	tokens, clk := newTokenService()
	claims := Claims{
		Email: "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
