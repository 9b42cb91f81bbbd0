package jwtauth

import (
	"context"
	"testing"
	"time"

	"adoption-followup/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestService(t *testing.T, now time.Time) *Service {
	t.Helper()
	s, err := New(Config{Secret: testSecret, Lifetime: 30 * time.Minute})
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestNew_RejectsShortSecret(t *testing.T) {
	_, err := New(Config{Secret: "short"})
	assert.ErrorIs(t, err, ErrSecretTooShort)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	now := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	s := newTestService(t, now)

	tok, err := s.Issue(context.Background(), auth.Claims{UserID: "u-1", Role: auth.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), tok.ExpiresAt)

	got, err := s.Verify(context.Background(), tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
	assert.True(t, got.IsAdmin())
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC)
	s := newTestService(t, now)
	tok, err := s.Issue(context.Background(), auth.Claims{UserID: "u-1", Role: auth.RoleRegular})
	require.NoError(t, err)

	s.now = func() time.Time { return now.Add(31 * time.Minute) }
	_, err = s.Verify(context.Background(), tok.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	now := time.Now()
	s := newTestService(t, now)

	other, err := New(Config{Secret: "ffffffffffffffffffffffffffffffff"})
	require.NoError(t, err)
	tok, err := other.Issue(context.Background(), auth.Claims{UserID: "u-1"})
	require.NoError(t, err)

	_, err = s.Verify(context.Background(), tok.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsUnsignedAlg(t *testing.T) {
	s := newTestService(t, time.Now())
	raw := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	str, err := raw.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Verify(context.Background(), str)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	s := newTestService(t, time.Now())
	_, err := s.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
