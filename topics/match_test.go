package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteralFiltersMatchOnlyThemselves(t *testing.T) {
	assert.True(t, Matches("a/b/c", "a/b/c"))
	assert.False(t, Matches("a/b/c", "a/b"))
	assert.False(t, Matches("a/b/c", "a/b/c/d"))
	assert.False(t, Matches("a/b/c", "a/b/d"))

	// byte-exact, case-sensitive
	assert.False(t, Matches("a/B/c", "a/b/c"))
}

func TestSingleLevelWildcard(t *testing.T) {
	assert.True(t, Matches("a/+/c", "a/b/c"))
	assert.True(t, Matches("a/+/c", "a/x/c"))
	assert.False(t, Matches("a/+/c", "a/b/b/c"))
	assert.False(t, Matches("a/+/c", "a/c"))
	assert.True(t, Matches("+/+/+", "a/b/c"))
	assert.False(t, Matches("+", "a/b"))
}

func TestMultiLevelWildcard(t *testing.T) {
	assert.True(t, Matches("a/#", "a/b/c"))
	assert.True(t, Matches("a/#", "a/b"))
	assert.True(t, Matches("a/#", "a"), "# matches zero extra levels")
	assert.False(t, Matches("a/#", "b/c"))
	assert.True(t, Matches("#", "anything/at/all"))
	assert.True(t, Matches("a/+/#", "a/b/c/d"))
}

func TestEmptyLevelsAreSignificant(t *testing.T) {
	assert.True(t, Matches("a//b", "a//b"))
	assert.False(t, Matches("a//b", "a/b"))
	assert.True(t, Matches("a/+/b", "a//b"), "+ matches an empty level")
	assert.True(t, Matches("a/#", "a/"))
}

func TestMalformedFiltersNeverMatch(t *testing.T) {
	assert.False(t, Matches("a/b#", "a/b"))
	assert.False(t, Matches("a/#/b", "a/x/b"))
	assert.False(t, Matches("a+", "a"))
	assert.False(t, Matches("a/b+/c", "a/b/c"))
	assert.False(t, Matches("#/a", "x/a"))
}

func TestSplitFilter(t *testing.T) {
	levels, ok := SplitFilter("a/+/c")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "+", "c"}, levels)

	_, ok = SplitFilter("a/b#")
	assert.False(t, ok)

	_, ok = SplitFilter("a/#/b")
	assert.False(t, ok)
}
