package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_Disabled_AlwaysAllows(t *testing.T) {
	l := New(Config{Enabled: false, Window: time.Minute, Max: 1})
	for i := 0; i < 5; i++ {
		assert.True(t, l.Allow("flash50", "1.1.1.1"))
	}
}

func TestLimiter_AllowsUpToMax(t *testing.T) {
	l := New(Config{Enabled: true, Window: time.Minute, Max: 3})
	assert.True(t, l.Allow("flash50", "1.1.1.1"))
	assert.True(t, l.Allow("flash50", "1.1.1.1"))
	assert.True(t, l.Allow("flash50", "1.1.1.1"))
	assert.False(t, l.Allow("flash50", "1.1.1.1"))
}

func TestLimiter_DistinctKeysIndependent(t *testing.T) {
	l := New(Config{Enabled: true, Window: time.Minute, Max: 1})
	assert.True(t, l.Allow("flash50", "1.1.1.1"))
	assert.True(t, l.Allow("flash50", "2.2.2.2"))
	assert.True(t, l.Allow("other-slug", "1.1.1.1"))
	assert.False(t, l.Allow("flash50", "1.1.1.1"))
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(Config{Enabled: true, Window: 30 * time.Millisecond, Max: 1})
	assert.True(t, l.Allow("flash50", "1.1.1.1"))
	assert.False(t, l.Allow("flash50", "1.1.1.1"))
	time.Sleep(40 * time.Millisecond)
	assert.True(t, l.Allow("flash50", "1.1.1.1"))
}
