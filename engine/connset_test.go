package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReserveRejectsDuplicates(t *testing.T) {
	c := NewConnSet()

	assert.True(t, c.Reserve("dev1"))
	assert.False(t, c.Reserve("dev1"))

	c.Release("dev1")
	assert.True(t, c.Reserve("dev1"), "released reservation frees the id")
}

func TestConcurrentReserveAdmitsExactlyOne(t *testing.T) {
	c := NewConnSet()

	var won int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Reserve("dev1") {
				atomic.AddInt32(&won, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), won)
}

func TestCommitAndRemove(t *testing.T) {
	c := NewConnSet()

	c.Reserve("dev1")
	c.Commit("dev1", "sensor-")
	assert.True(t, c.Contains("dev1"))

	key, ok := c.Remove("dev1")
	assert.True(t, ok)
	assert.Equal(t, "sensor-", key)
	assert.False(t, c.Contains("dev1"))

	_, ok = c.Remove("dev1")
	assert.False(t, ok, "second disconnect for the same id")
}

func TestClientIDsSnapshot(t *testing.T) {
	c := NewConnSet()
	c.Reserve("a")
	c.Commit("a", "a")
	c.Reserve("b")
	c.Commit("b", "b")

	assert.Equal(t, 2, c.Count())
	assert.ElementsMatch(t, []string{"a", "b"}, c.ClientIDs())
}
