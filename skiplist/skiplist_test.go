package skiplist

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattkeenan/hybridmap/prng"
)

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func newTestList(t *testing.T) *SkipList[string, int] {
	t.Helper()
	arena := NewArena[string, int](8)
	return New(cmpString, arena, prng.NewLCG(12345))
}

func TestNewListIsEmpty(t *testing.T) {
	sl := newTestList(t)
	assert.Equal(t, 0, sl.Size())
	assert.Equal(t, 1, sl.Level())
	assert.False(t, sl.Exists("a"))
	assert.Equal(t, -1, sl.Get("a", -1))
}

func TestInsertThenExistsAndGet(t *testing.T) {
	sl := newTestList(t)
	require.NoError(t, sl.Insert("b", 2, false))
	require.NoError(t, sl.Insert("a", 1, false))
	require.NoError(t, sl.Insert("c", 3, false))

	assert.Equal(t, 3, sl.Size())
	assert.True(t, sl.Exists("a"))
	assert.Equal(t, 2, sl.Get("b", -1))
	assert.Equal(t, -1, sl.Get("z", -1))
}

func TestInsertDuplicateWithoutUpdateFails(t *testing.T) {
	sl := newTestList(t)
	require.NoError(t, sl.Insert("a", 1, false))
	err := sl.Insert("a", 2, false)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, 1, sl.Get("a", -1))
}

func TestInsertDuplicateWithUpdateOverwritesWithoutGrowingSize(t *testing.T) {
	sl := newTestList(t)
	require.NoError(t, sl.Insert("a", 1, false))
	require.NoError(t, sl.Insert("b", 2, false))

	require.NoError(t, sl.Insert("a", 99, true))
	assert.Equal(t, 99, sl.Get("a", -1))
	assert.Equal(t, 2, sl.Size(), "update on an existing key must not change size")
}

func TestSetRequiresExistingKey(t *testing.T) {
	sl := newTestList(t)
	assert.ErrorIs(t, sl.Set("missing", 1), ErrKeyNotFound)

	require.NoError(t, sl.Insert("a", 1, false))
	require.NoError(t, sl.Set("a", 42))
	assert.Equal(t, 42, sl.Get("a", -1))
	assert.Equal(t, 1, sl.Size())
}

func TestRemoveUnknownKeyFails(t *testing.T) {
	sl := newTestList(t)
	assert.ErrorIs(t, sl.Remove("missing"), ErrKeyNotFound)
}

func TestRemoveDeletesKeyAndShrinksSize(t *testing.T) {
	sl := newTestList(t)
	require.NoError(t, sl.Insert("a", 1, false))
	require.NoError(t, sl.Insert("b", 2, false))

	require.NoError(t, sl.Remove("a"))
	assert.False(t, sl.Exists("a"))
	assert.True(t, sl.Exists("b"))
	assert.Equal(t, 1, sl.Size())
}

func TestForEachWalksInAscendingOrder(t *testing.T) {
	sl := newTestList(t)
	keys := []string{"delta", "alpha", "charlie", "bravo"}
	for i, k := range keys {
		require.NoError(t, sl.Insert(k, i, false))
	}

	var seen []string
	sl.ForEach(func(k string, v int) {
		seen = append(seen, k)
	})

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	assert.Equal(t, sorted, seen)
}

func TestClearEmptiesListButKeepsItUsable(t *testing.T) {
	sl := newTestList(t)
	for i := 0; i < 50; i++ {
		require.NoError(t, sl.Insert(string(rune('a'+i%26))+string(rune('0'+i%10)), i, false))
	}
	require.Greater(t, sl.Size(), 0)

	sl.Clear()
	assert.Equal(t, 0, sl.Size())
	assert.Equal(t, 1, sl.Level())
	assert.False(t, sl.Exists("a0"))

	require.NoError(t, sl.Insert("fresh", 1, false))
	assert.Equal(t, 1, sl.Size())
}

func TestLevelsReportsPerLevelPopulation(t *testing.T) {
	sl := newTestList(t)
	for i := 0; i < 100; i++ {
		require.NoError(t, sl.Insert(string(rune('A'+i%26))+string(rune('a'+i%26))+string(rune('0'+i%10)), i, false))
	}
	levels := sl.Levels()
	require.Len(t, levels, sl.Level())
	assert.Equal(t, sl.Size(), levels[0], "level 0 must observe every key")
	for i := 1; i < len(levels); i++ {
		assert.LessOrEqual(t, levels[i], levels[i-1], "higher levels hold a subset of lower ones")
	}
}

func TestNilArenaModeAllocatesDirectly(t *testing.T) {
	sl := New[string, int](cmpString, nil, prng.NewLCG(1))
	require.NoError(t, sl.Insert("a", 1, false))
	require.NoError(t, sl.Insert("b", 2, false))
	assert.Equal(t, 1, sl.Get("a", -1))
	require.NoError(t, sl.Remove("a"))
	assert.Equal(t, 1, sl.Size())
	sl.Release() // must not panic with a nil arena
}

func TestReleaseReturnsArenaPages(t *testing.T) {
	sl := newTestList(t)
	require.NoError(t, sl.Insert("a", 1, false))
	sl.Release()
	assert.Nil(t, sl.head)
}

func TestDestroyZeroesState(t *testing.T) {
	sl := newTestList(t)
	require.NoError(t, sl.Insert("a", 1, false))
	sl.Destroy()
	assert.Nil(t, sl.head)
	assert.Equal(t, 0, sl.Size())
	assert.Equal(t, 0, sl.level)
	assert.Nil(t, sl.arena)
}

// TestClearSurvivesHeaderAcrossReclaim guards against a header node
// that was itself drawn from the arena: Clear bulk-zeroes every small
// page, and a header living in page 0 would lose its forward slice
// out from under the list on the very next operation.
func TestClearSurvivesHeaderAcrossReclaim(t *testing.T) {
	sl := newTestList(t)
	require.NoError(t, sl.Insert("a", 1, false))
	sl.Clear()
	require.NotPanics(t, func() {
		assert.False(t, sl.Exists("a"))
	})
	require.NoError(t, sl.Insert("b", 2, false))
	assert.True(t, sl.Exists("b"))
}
