package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCachedPageExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := CachedPage{ExpiresAt: now.Add(time.Hour)}
	stale := CachedPage{ExpiresAt: now.Add(-time.Minute)}
	edge := CachedPage{ExpiresAt: now}

	assert.False(t, fresh.Expired(now))
	assert.True(t, stale.Expired(now))
	assert.True(t, edge.Expired(now))
}
