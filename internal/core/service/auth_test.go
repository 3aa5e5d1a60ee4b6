package service

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/pkg/token"
)

func TestAdminAuthenticator(t *testing.T) {
	hash, err := token.HashSecret("s3cret")
	require.NoError(t, err)

	a := NewAdminAuthenticator(hash)
	assert.True(t, a.Enabled())
	assert.NoError(t, a.Verify("s3cret"))
	assert.ErrorIs(t, a.Verify("wrong"), domain.ErrAdminKeyInvalid)
	assert.ErrorIs(t, a.Verify(""), domain.ErrAdminKeyInvalid)

	disabled := NewAdminAuthenticator("")
	assert.False(t, disabled.Enabled())
	assert.ErrorIs(t, disabled.Verify("s3cret"), domain.ErrAdminKeyInvalid)
}

func TestRateLimiterRegistry(t *testing.T) {
	mock := clock.NewMock()
	r := NewRateLimiterRegistry(1, 2, mock)

	assert.True(t, r.Allow("10.0.0.1"))
	assert.True(t, r.Allow("10.0.0.1"))
	assert.False(t, r.Allow("10.0.0.1"), "burst exhausted")
	assert.True(t, r.Allow("10.0.0.2"), "keys are independent")

	mock.Add(time.Second)
	assert.True(t, r.Allow("10.0.0.1"), "one token refilled")

	mock.Add(time.Hour)
	r.Allow("10.0.0.3")
	assert.Equal(t, 2, r.Prune(10*time.Minute))
	assert.Equal(t, 1, r.Len())
}

func TestRateLimiterRegistry_Disabled(t *testing.T) {
	r := NewRateLimiterRegistry(0, 0, nil)
	for i := 0; i < 100; i++ {
		require.True(t, r.Allow("k"))
	}
	var nilRegistry *RateLimiterRegistry
	assert.True(t, nilRegistry.Allow("k"))
}
