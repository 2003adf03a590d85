package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-memory UserDirectory and RuleStore. It backs small
// deployments and tests; rule order is insertion order.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*User // keyed by login name
	rules map[string][]Rule
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]*User),
		rules: make(map[string][]Rule),
	}
}

// AddUser registers a user and returns its generated id.
func (m *Memory) AddUser(u User) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	m.users[u.UserName] = &u
	return u.ID
}

// RemoveUser deletes a user by login name.
func (m *Memory) RemoveUser(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[name]; ok {
		delete(m.rules, u.ID)
		delete(m.users, name)
	}
}

// AddRule appends a rule to the user's stored rule list and returns the
// rule id.
func (m *Memory) AddRule(r Rule) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	m.rules[r.UserID] = append(m.rules[r.UserID], r)
	return r.ID
}

// RemoveRule deletes a rule by id.
func (m *Memory) RemoveRule(userID, ruleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rules := m.rules[userID]
	for i, r := range rules {
		if r.ID == ruleID {
			m.rules[userID] = append(rules[:i:i], rules[i+1:]...)
			return
		}
	}
}

func (m *Memory) UserByName(ctx context.Context, name string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[name]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) ClientIDPrefixes(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefixes := make([]string, 0, len(m.users))
	for _, u := range m.users {
		if u.ClientIDPrefix != "" {
			prefixes = append(prefixes, u.ClientIDPrefix)
		}
	}
	return prefixes, nil
}

func (m *Memory) Rules(ctx context.Context, userID string, dir Direction, pol Polarity) ([]Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Rule
	for _, r := range m.rules[userID] {
		if r.Direction == dir && r.Polarity == pol {
			out = append(out, r)
		}
	}
	return out, nil
}
