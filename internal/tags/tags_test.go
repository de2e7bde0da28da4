package tags

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/docman/pkg/api"
)

func TestAdd(t *testing.T) {
	t.Run("trims and dedups preserving first insertion order", func(t *testing.T) {
		s := New()
		assert.True(t, s.Add("  urgent "))
		assert.True(t, s.Add("hr"))
		assert.False(t, s.Add("urgent"))
		assert.False(t, s.Add("   "))
		assert.True(t, s.Add("Urgent"))
		assert.Equal(t, []string{"urgent", "hr", "Urgent"}, s.Names())
	})

	t.Run("arbitrary sequences never produce duplicates", func(t *testing.T) {
		seq := []string{"a", "b", "a", " b", "c", "", "a ", "c", "d"}
		s := New(seq...)
		assert.Equal(t, []string{"a", "b", "c", "d"}, s.Names())
	})

	t.Run("csv", func(t *testing.T) {
		s := New("x")
		assert.Equal(t, 2, s.AddCSV("x, y ,,z"))
		assert.Equal(t, []string{"x", "y", "z"}, s.Names())
	})
}

func TestRemove(t *testing.T) {
	s := New("a", "b", "c", "d")

	assert.False(t, s.Remove(-1))
	assert.False(t, s.Remove(4))
	assert.Equal(t, 4, s.Len())

	assert.True(t, s.Remove(1))
	assert.Equal(t, []string{"a", "c", "d"}, s.Names())

	assert.True(t, s.RemoveName("d"))
	assert.False(t, s.RemoveName("zzz"))
	assert.Equal(t, []string{"a", "c"}, s.Names())
}

func TestContainsAndClear(t *testing.T) {
	s := New("a", "B")
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("b"), "matching is case-sensitive")

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contains("a"))
	assert.True(t, s.Add("a"), "cleared set accepts names again")
}

func TestRemoveDoesNotAliasPreviousNames(t *testing.T) {
	s := New("a", "b", "c")
	before := s.Names()
	s.Remove(0)
	assert.Equal(t, []string{"a", "b", "c"}, before)
}

func TestSlice(t *testing.T) {
	var empty Set
	b, err := json.Marshal(empty.Slice())
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(b))

	s := New("urgent", "hr")
	assert.Equal(t, []api.Tag{{TagName: "urgent"}, {TagName: "hr"}}, s.Slice())

	var nilSet *Set
	assert.NotNil(t, nilSet.Slice())
}

func TestCloneIsIndependent(t *testing.T) {
	s := New("a")
	c := s.Clone()
	c.Add("b")
	assert.Equal(t, []string{"a"}, s.Names())
	assert.Equal(t, []string{"a", "b"}, c.Names())
}
