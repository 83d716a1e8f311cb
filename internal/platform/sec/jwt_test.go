// Copyright (c) 2026 Annotide. All rights reserved.
// Author: platform@annotide.dev

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotide/annotide/internal/platform/sec"
)

func newTokenService(t *testing.T, ttl time.Duration) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService("test-signing-secret", "annotide.dev", ttl)
	require.NoError(t, err)
	return service
}

/*
TestTokenService_RoundTrip verifies that an issued token verifies back to
the same subject and carries the configured issuer.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t, 30*time.Minute)

	token, err := service.Issue("reader@annotide.dev")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "reader@annotide.dev", claims.Subject)
	assert.Equal(t, "annotide.dev", claims.Issuer)
}

/*
TestTokenService_EmptySecret verifies that construction refuses an empty
signing key.
*/
func TestTokenService_EmptySecret(t *testing.T) {
	_, err := sec.NewTokenService("", "annotide.dev", time.Minute)
	assert.Error(t, err)
}

/*
TestTokenService_Expired verifies that an authentic but expired token fails
with ErrTokenExpired, not ErrTokenInvalid.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTokenService(t, time.Minute)

	token, err := service.IssueWithTTL("reader@annotide.dev", -time.Minute)
	require.NoError(t, err)

	_, err = service.Verify(token)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
	assert.NotErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Tampered verifies that flipping a payload byte breaks the
signature and yields ErrTokenInvalid.
*/
func TestTokenService_Tampered(t *testing.T) {
	service := newTokenService(t, 30*time.Minute)

	token, err := service.Issue("reader@annotide.dev")
	require.NoError(t, err)

	// Corrupt a byte in the middle of the payload segment.
	tampered := []byte(token)
	middle := len(tampered) / 2
	if tampered[middle] == 'A' {
		tampered[middle] = 'B'
	} else {
		tampered[middle] = 'A'
	}

	_, err = service.Verify(string(tampered))
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_WrongKey verifies that a token signed under one key is
rejected by a service holding another.
*/
func TestTokenService_WrongKey(t *testing.T) {
	issuing := newTokenService(t, 30*time.Minute)
	verifying, err := sec.NewTokenService("a-different-secret", "annotide.dev", 30*time.Minute)
	require.NoError(t, err)

	token, err := issuing.Issue("reader@annotide.dev")
	require.NoError(t, err)

	_, err = verifying.Verify(token)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Malformed verifies that junk strings fail as invalid, never
as expired.
*/
func TestTokenService_Malformed(t *testing.T) {
	service := newTokenService(t, 30*time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not_a_jwt", "not-a-token"},
		{"two_segments", "aaaa.bbbb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Verify(tt.token)
			assert.ErrorIs(t, err, sec.ErrTokenInvalid)
		})
	}
}
