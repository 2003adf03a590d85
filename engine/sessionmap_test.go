package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mqguard/mqguard/directory"
)

func TestBindExclusive(t *testing.T) {
	s := NewSessionMap()
	alice := &directory.User{UserName: "alice"}
	bob := &directory.User{UserName: "bob"}

	assert.True(t, s.Bind("dev1", "dev1", alice))
	assert.False(t, s.Bind("dev1", "dev2", bob), "key already held by another session")

	u, ok := s.Get("dev1")
	assert.True(t, ok)
	assert.Equal(t, "alice", u.UserName)
}

func TestBindIdempotentForSameOwner(t *testing.T) {
	s := NewSessionMap()
	alice := &directory.User{UserName: "alice"}

	assert.True(t, s.Bind("dev1", "dev1", alice))
	assert.True(t, s.Bind("dev1", "dev1", alice), "reconnect of the same session")
	assert.Equal(t, 1, s.Count())
}

func TestConcurrentBindAdmitsExactlyOne(t *testing.T) {
	s := NewSessionMap()
	user := &directory.User{UserName: "alice"}

	var won int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		owner := string(rune('a' + i))
		go func() {
			defer wg.Done()
			if s.Bind("dev1", owner, user) {
				atomic.AddInt32(&won, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), won)
}

func TestBindSharedAllowsManyOwners(t *testing.T) {
	s := NewSessionMap()
	fleet := &directory.User{UserName: "fleet"}

	s.BindShared("sensor-", "sensor-1", fleet)
	s.BindShared("sensor-", "sensor-2", fleet)
	assert.Equal(t, 1, s.Count())

	// binding survives until the last owner leaves
	s.Unbind("sensor-", "sensor-1")
	_, ok := s.Get("sensor-")
	assert.True(t, ok)

	s.Unbind("sensor-", "sensor-2")
	_, ok = s.Get("sensor-")
	assert.False(t, ok)
}

func TestResolveExactBeforePrefix(t *testing.T) {
	s := NewSessionMap()
	exact := &directory.User{UserName: "exact"}
	group := &directory.User{UserName: "group"}

	s.BindShared("sensor-", "sensor-1", group)
	assert.True(t, s.Bind("sensor-1x", "sensor-1x", exact))

	u, ok := s.Resolve("sensor-1x", "sensor-")
	assert.True(t, ok)
	assert.Equal(t, "exact", u.UserName)

	u, ok = s.Resolve("sensor-2", "sensor-")
	assert.True(t, ok)
	assert.Equal(t, "group", u.UserName)

	_, ok = s.Resolve("other", "")
	assert.False(t, ok)
}

func TestUnbindUnknownKeyIsHarmless(t *testing.T) {
	s := NewSessionMap()
	s.Unbind("nope", "nope")
	assert.Equal(t, 0, s.Count())
}
