package caching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetrack/safetrack-admin/safetrackapi/api"
)

func TestProfileCache(t *testing.T) {
	caches, err := NewRistrettoCache(128, false)
	require.NoError(t, err)

	var pc ProfileCache = caches
	_, ok := pc.GetProfile("token-a")
	assert.False(t, ok)

	profile := api.Profile{ID: 7, Email: "tech@safetrack.local", Role: "admin"}
	pc.StoreProfile("token-a", profile)

	got, ok := pc.GetProfile("token-a")
	require.True(t, ok)
	assert.Equal(t, profile, got)

	_, ok = pc.GetProfile("token-b")
	assert.False(t, ok)

	pc.EvictProfile("token-a")
	_, ok = pc.GetProfile("token-a")
	assert.False(t, ok)
}

func TestTokenKeyHidesToken(t *testing.T) {
	key := TokenKey("secret-token")
	assert.Len(t, key, 64)
	assert.NotContains(t, key, "secret-token")
	assert.Equal(t, key, TokenKey("secret-token"))
	assert.NotEqual(t, key, TokenKey("other-token"))
}
