package engine

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const connShardNum = 32

type connShard struct {
	mu    sync.Mutex
	items map[string]string // client id -> binding key, "" while reserved
}

// ConnSet tracks which client ids currently hold an open connection. A
// client id is reserved before identity resolution starts so two racing
// connects with the same id cannot both pass the duplicate check.
type ConnSet struct {
	shards [connShardNum]*connShard
}

func NewConnSet() *ConnSet {
	c := &ConnSet{}
	for i := range c.shards {
		c.shards[i] = &connShard{items: make(map[string]string)}
	}
	return c
}

func (c *ConnSet) shard(clientID string) *connShard {
	return c.shards[xxhash.Sum64String(clientID)%connShardNum]
}

// Reserve claims clientID for an in-flight connection attempt. Returns
// false when the id already belongs to a live or in-flight connection.
func (c *ConnSet) Reserve(clientID string) bool {
	sh := c.shard(clientID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.items[clientID]; ok {
		return false
	}
	sh.items[clientID] = ""
	return true
}

// Commit records the binding key the accepted connection holds.
func (c *ConnSet) Commit(clientID, bindingKey string) {
	sh := c.shard(clientID)
	sh.mu.Lock()
	sh.items[clientID] = bindingKey
	sh.mu.Unlock()
}

// Release drops a reservation after a rejected attempt.
func (c *ConnSet) Release(clientID string) {
	sh := c.shard(clientID)
	sh.mu.Lock()
	delete(sh.items, clientID)
	sh.mu.Unlock()
}

// Remove drops clientID on disconnect and returns the binding key it
// held. ok is false when the id was not connected.
func (c *ConnSet) Remove(clientID string) (bindingKey string, ok bool) {
	sh := c.shard(clientID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	key, ok := sh.items[clientID]
	if ok {
		delete(sh.items, clientID)
	}
	return key, ok
}

// Contains reports whether clientID holds a connection or reservation.
func (c *ConnSet) Contains(clientID string) bool {
	sh := c.shard(clientID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.items[clientID]
	return ok
}

// ClientIDs returns a snapshot of the connected client ids.
func (c *ConnSet) ClientIDs() []string {
	var ids []string
	for _, sh := range c.shards {
		sh.mu.Lock()
		for id := range sh.items {
			ids = append(ids, id)
		}
		sh.mu.Unlock()
	}
	return ids
}

// Count returns the number of connected or in-flight client ids.
func (c *ConnSet) Count() int {
	n := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		n += len(sh.items)
		sh.mu.Unlock()
	}
	return n
}
