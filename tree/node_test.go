package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minghsu/npview/dtype"
)

func TestFromValue_NestedMapping(t *testing.T) {
	// { "a": 1, "b": { "c": [1, 2, 3] } }
	v := []Entry{
		{Key: "a", Value: float64(1)},
		{Key: "b", Value: []Entry{
			{Key: "c", Value: []any{float64(1), float64(2), float64(3)}},
		}},
	}

	root := FromValue([]string{"root"}, v)

	require.Equal(t, Object, root.Type)
	require.Len(t, root.Children, 2)

	a := root.Children[0]
	require.Equal(t, "root.a", a.ID)
	require.Equal(t, "a", a.Key)
	require.Equal(t, Scalar, a.Type)
	require.Equal(t, float64(1), a.Value)
	require.True(t, a.IsLeaf())

	b := root.Children[1]
	require.Equal(t, "root.b", b.ID)
	require.Equal(t, Object, b.Type)
	require.Len(t, b.Children, 1)
	require.Nil(t, b.Value)

	c := b.Children[0]
	require.Equal(t, "root.b.c", c.ID)
	require.Equal(t, "c", c.Key)
	require.Equal(t, Array, c.Type)
	require.NotNil(t, c.Meta)
	require.Equal(t, 3, c.Meta.Size)
	require.True(t, c.IsLeaf())
}

func TestFromValue_IDsUniqueAndPathDerived(t *testing.T) {
	v := []Entry{
		{Key: "x", Value: []any{
			float64(1),
			[]any{float64(2), float64(3)},
		}},
	}

	root := FromValue([]string{"f"}, v)
	x := root.Children[0]
	require.Equal(t, "f.x", x.ID)
	// Mixed sequence expands with positional keys.
	require.Len(t, x.Children, 2)
	require.Equal(t, "f.x.[0]", x.Children[0].ID)
	require.Equal(t, "[0]", x.Children[0].Key)
	require.Equal(t, "f.x.[1]", x.Children[1].ID)

	seen := map[string]bool{}
	var walk func(n *Node)
	walk = func(n *Node) {
		require.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
}

func TestFromValue_Leaves(t *testing.T) {
	t.Run("String leaf", func(t *testing.T) {
		n := FromValue([]string{"s"}, "hello")
		require.Equal(t, String, n.Type)
		require.Equal(t, "hello", n.Value)
	})

	t.Run("Bool leaf", func(t *testing.T) {
		n := FromValue([]string{"b"}, true)
		require.Equal(t, Scalar, n.Type)
		require.Equal(t, true, n.Value)
	})

	t.Run("Nil leaf", func(t *testing.T) {
		n := FromValue([]string{"n"}, nil)
		require.Equal(t, Scalar, n.Type)
		require.Nil(t, n.Value)
		require.True(t, n.IsLeaf())
	})

	t.Run("Flat sequence is an array leaf", func(t *testing.T) {
		n := FromValue([]string{"xs"}, []any{float64(1), "two", true})
		require.Equal(t, Array, n.Type)
		require.True(t, n.IsLeaf())
		require.Equal(t, 3, n.Meta.Size)
	})
}

func TestNewArrayMeta(t *testing.T) {
	meta := &ArrayMeta{ElementType: dtype.Float64, Shape: []int{4}, Size: 4}
	n := NewArray([]string{"data"}, []any{1.0, 2.0, 3.0, 4.0}, meta)

	require.Equal(t, "data", n.ID)
	require.Equal(t, "data", n.Key)
	require.Equal(t, Array, n.Type)
	require.Equal(t, dtype.Float64, n.Meta.ElementType)
	require.Equal(t, []int{4}, n.Meta.Shape)
}

func TestEntryOrderPreserved(t *testing.T) {
	entries := make([]Entry, 0, 26)
	for c := byte('z'); c >= 'a'; c-- {
		entries = append(entries, Entry{Key: string(c), Value: float64(c)})
	}

	root := FromValue([]string{"r"}, entries)
	require.Len(t, root.Children, 26)
	// Children follow the collaborator's declared order, not sorted order.
	require.Equal(t, "z", root.Children[0].Key)
	require.Equal(t, "a", root.Children[25].Key)
}
