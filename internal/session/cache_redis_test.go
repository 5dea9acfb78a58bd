package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTTL(t *testing.T) {
	ttl, err := normalizeTTL(45 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, ttl)

	// Redis -1 means the key exists without an expiry.
	ttl, err = normalizeTTL(time.Duration(-1))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), ttl)

	// Redis -2 means the key is gone.
	_, err = normalizeTTL(time.Duration(-2))
	assert.ErrorIs(t, err, ErrCacheMiss)
}
