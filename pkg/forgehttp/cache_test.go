package forgehttp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenCache_AddThenTryGet(t *testing.T) {
	cache := NewTokenCache()

	cache.Add("data:read", "Bearer abc", 50*time.Millisecond)

	token, found := cache.TryGet("data:read")
	assert.True(t, found)
	assert.Equal(t, "Bearer abc", token)
}

func TestTokenCache_ExpiresAfterTTL(t *testing.T) {
	cache := NewTokenCache()

	cache.Add("data:read", "Bearer abc", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, found := cache.TryGet("data:read")
	assert.False(t, found)
}

func TestTokenCache_MissForUnknownKey(t *testing.T) {
	cache := NewTokenCache()

	_, found := cache.TryGet("unknown")
	assert.False(t, found)
}

func TestTokenCache_AddOverwritesWithoutInPlaceUpdate(t *testing.T) {
	cache := NewTokenCache()

	cache.Add("data:read", "Bearer old", time.Hour)
	cache.Add("data:read", "Bearer new", time.Hour)

	token, found := cache.TryGet("data:read")
	assert.True(t, found)
	assert.Equal(t, "Bearer new", token)
}

func TestTokenCache_Purge(t *testing.T) {
	cache := NewTokenCache()

	cache.Add("data:read", "Bearer abc", time.Hour)
	cache.Purge("data:read")

	_, found := cache.TryGet("data:read")
	assert.False(t, found)
}

func TestTokenCache_ConcurrentAccess(t *testing.T) {
	cache := NewTokenCache()
	done := make(chan struct{})

	for i := 0; i < 20; i++ {
		go func() {
			cache.Add("k", "Bearer x", time.Hour)
			cache.TryGet("k")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}

	token, found := cache.TryGet("k")
	assert.True(t, found)
	assert.Equal(t, "Bearer x", token)
}
