package engine

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/mqguard/mqguard/directory"
)

const sessionShardNum = 32

// binding ties a binding key to the identity claimed under it and the
// client ids currently holding it. Exact-key bindings allow a single
// owner; prefix bindings are shared by every session of the group.
type binding struct {
	user   *directory.User
	owners map[string]struct{}
}

type sessionShard struct {
	mu    sync.RWMutex
	items map[string]*binding
}

// SessionMap is the session identity cache: it maps a live binding key
// (client id or configured prefix) to the identity bound at connect
// time. Keys are spread over shards so one slow client cannot block
// lookups for another.
type SessionMap struct {
	shards [sessionShardNum]*sessionShard
}

func NewSessionMap() *SessionMap {
	s := &SessionMap{}
	for i := range s.shards {
		s.shards[i] = &sessionShard{items: make(map[string]*binding)}
	}
	return s
}

func (s *SessionMap) shard(key string) *sessionShard {
	return s.shards[xxhash.Sum64String(key)%sessionShardNum]
}

// Bind claims key exclusively for owner. It fails when the key is held
// by a different live session and succeeds idempotently when the same
// owner rebinds, so a connect retry cannot conflict with itself.
func (s *SessionMap) Bind(key, owner string, user *directory.User) bool {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if b, ok := sh.items[key]; ok {
		if _, mine := b.owners[owner]; !mine {
			return false
		}
		b.user = user
		return true
	}
	sh.items[key] = &binding{user: user, owners: map[string]struct{}{owner: {}}}
	return true
}

// BindShared joins owner to the group binding under key. Any number of
// sessions of the same prefix group may hold it concurrently.
func (s *SessionMap) BindShared(key, owner string, user *directory.User) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	b, ok := sh.items[key]
	if !ok {
		b = &binding{user: user, owners: make(map[string]struct{})}
		sh.items[key] = b
	}
	b.user = user
	b.owners[owner] = struct{}{}
}

// Get returns the identity bound under key, if any.
func (s *SessionMap) Get(key string) (*directory.User, bool) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	b, ok := sh.items[key]
	if !ok {
		return nil, false
	}
	return b.user, true
}

// Resolve looks up clientID first, then the prefix key when one applies.
func (s *SessionMap) Resolve(clientID, prefix string) (*directory.User, bool) {
	if u, ok := s.Get(clientID); ok {
		return u, true
	}
	if prefix != "" {
		return s.Get(prefix)
	}
	return nil, false
}

// Unbind releases owner's hold on key. The binding disappears once the
// last owner is gone. Idempotent.
func (s *SessionMap) Unbind(key, owner string) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	b, ok := sh.items[key]
	if !ok {
		return
	}
	delete(b.owners, owner)
	if len(b.owners) == 0 {
		delete(sh.items, key)
	}
}

// Keys returns a snapshot of the live binding keys.
func (s *SessionMap) Keys() []string {
	var keys []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.items {
			keys = append(keys, k)
		}
		sh.mu.RUnlock()
	}
	return keys
}

// Count returns the number of live bindings.
func (s *SessionMap) Count() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.items)
		sh.mu.RUnlock()
	}
	return n
}
