package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStateIsEmpty(t *testing.T) {
	s := NewState("n1", []string{"n1", "n2", "n3"})

	assert.Equal(t, "n1", s.ID())
	assert.Empty(t, s.Values())
	assert.Empty(t, s.Neighbors())
	assert.Equal(t, 0, s.KnownCount("n2"))
	assert.True(t, s.IsPeer("n2"))
	assert.False(t, s.IsPeer("n1"))
	assert.False(t, s.IsPeer("c1"))
}

func TestInsertIsIdempotent(t *testing.T) {
	s := NewState("n1", nil)

	assert.True(t, s.Insert(5))
	assert.True(t, s.Insert(0))
	assert.False(t, s.Insert(5))
	assert.True(t, s.Insert(-3))

	assert.Equal(t, []int{5, 0, -3}, s.Values())
	assert.Equal(t, 3, s.Len())
}

func TestValuesIsACopy(t *testing.T) {
	s := NewState("n1", nil)
	s.Insert(1)

	values := s.Values()
	values[0] = 42

	assert.Equal(t, []int{1}, s.Values())
}

func TestLearnOnlyTrustsPeers(t *testing.T) {
	s := NewState("n1", []string{"n1", "n2"})
	s.Insert(5)
	s.Insert(7)

	assert.Equal(t, 0, s.Learn("c1", 5))
	assert.Equal(t, 0, s.Learn("n1", 5))
	assert.Equal(t, 1, s.Learn("n2", 5))
	assert.Equal(t, 0, s.Learn("n2", 5))

	assert.True(t, s.Known("n2", 5))
	assert.False(t, s.Known("n2", 7))
	assert.False(t, s.Known("c1", 5))
}

func TestLearnIgnoresUnheldValues(t *testing.T) {
	s := NewState("n1", []string{"n1", "n2"})
	s.Insert(5)

	assert.Equal(t, 1, s.Learn("n2", 5, 9))
	assert.False(t, s.Known("n2", 9))
	assert.Empty(t, s.Missing("n2"))
}

func TestMergeTopology(t *testing.T) {
	s := NewState("n1", []string{"n1", "n2", "n3"})

	cases := []struct {
		name      string
		topology  map[string][]string
		found     bool
		added     int
		neighbors []string
	}{
		{
			name:      "first",
			topology:  map[string][]string{"n1": {"n2"}, "n2": {"n1"}},
			found:     true,
			added:     1,
			neighbors: []string{"n2"},
		},
		{
			name:      "duplicate",
			topology:  map[string][]string{"n1": {"n2"}},
			found:     true,
			added:     0,
			neighbors: []string{"n2"},
		},
		{
			name:      "missing entry",
			topology:  map[string][]string{"n3": {"n1"}},
			found:     false,
			added:     0,
			neighbors: []string{"n2"},
		},
		{
			name:      "union skips self",
			topology:  map[string][]string{"n1": {"n1", "n3", "n2", "n3"}},
			found:     true,
			added:     1,
			neighbors: []string{"n2", "n3"},
		},
		{
			name:      "nil topology",
			topology:  nil,
			found:     false,
			added:     0,
			neighbors: []string{"n2", "n3"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			found, added := s.MergeTopology(c.topology)
			assert.Equal(t, c.found, found)
			assert.Equal(t, c.added, added)
			assert.Equal(t, c.neighbors, s.Neighbors())
		})
	}
}

func TestMissing(t *testing.T) {
	s := NewState("n1", []string{"n1", "n2", "n3"})
	for _, v := range []int{3, 1, 4, 5} {
		s.Insert(v)
	}
	s.Learn("n2", 1, 5)

	assert.Equal(t, []int{3, 4}, s.Missing("n2"))
	assert.Equal(t, []int{3, 1, 4, 5}, s.Missing("n3"))

	s.Learn("n2", 3, 4)
	assert.Empty(t, s.Missing("n2"))
}
