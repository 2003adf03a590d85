package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u, err := m.UserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, u, "absent user is (nil, nil), not an error")

	id := m.AddUser(User{UserName: "alice", PasswordHash: "h"})
	assert.NotEmpty(t, id)

	u, err = m.UserByName(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)

	// callers get a copy, not the stored record
	u.UserName = "mutated"
	again, err := m.UserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", again.UserName)

	m.RemoveUser("alice")
	u, err = m.UserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestMemoryClientIDPrefixes(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.AddUser(User{UserName: "fleet", ClientIDPrefix: "sensor-"})
	m.AddUser(User{UserName: "alice"})

	prefixes, err := m.ClientIDPrefixes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sensor-"}, prefixes)
}

func TestMemoryRulesKeepInsertionOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := m.AddUser(User{UserName: "alice"})

	m.AddRule(Rule{UserID: id, Direction: Publish, Polarity: Whitelist, Filter: "a/#"})
	m.AddRule(Rule{UserID: id, Direction: Publish, Polarity: Whitelist, Filter: "b/#"})
	m.AddRule(Rule{UserID: id, Direction: Publish, Polarity: Blacklist, Filter: "a/x"})
	m.AddRule(Rule{UserID: id, Direction: Subscribe, Polarity: Whitelist, Filter: "c/#"})

	rules, err := m.Rules(ctx, id, Publish, Whitelist)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "a/#", rules[0].Filter)
	assert.Equal(t, "b/#", rules[1].Filter)

	rules, err = m.Rules(ctx, id, Publish, Blacklist)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "a/x", rules[0].Filter)
}

func TestMemoryRemoveRule(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id := m.AddUser(User{UserName: "alice"})

	first := m.AddRule(Rule{UserID: id, Direction: Publish, Polarity: Whitelist, Filter: "a/#"})
	m.AddRule(Rule{UserID: id, Direction: Publish, Polarity: Whitelist, Filter: "b/#"})

	m.RemoveRule(id, first)
	rules, err := m.Rules(ctx, id, Publish, Whitelist)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "b/#", rules[0].Filter)
}

func TestMemoryHonorsContextCancellation(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.UserByName(ctx, "alice")
	assert.Error(t, err)
	_, err = m.ClientIDPrefixes(ctx)
	assert.Error(t, err)
	_, err = m.Rules(ctx, "u", Publish, Whitelist)
	assert.Error(t, err)
}
