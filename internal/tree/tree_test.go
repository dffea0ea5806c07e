package tree

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Tree[int] {
	return Node(Leaf(1), Node(None[int](), Leaf(2), Leaf(3)), Node[int]())
}

func TestKinds(t *testing.T) {
	var zero Tree[int]
	assert.True(t, zero.IsNone())
	assert.Equal(t, KindNone, zero.Kind())
	assert.True(t, Leaf(1).IsLeaf())
	assert.True(t, Node[int]().IsNode())
	assert.Equal(t, "node", KindNode.String())

	assert.Panics(t, func() { Node[int]().Value() })
	assert.Panics(t, func() { Leaf(1).Child(0) })
	assert.Panics(t, func() { Node(Leaf(1)).Child(1) })
}

func TestNodeCopiesChildren(t *testing.T) {
	children := []Tree[int]{Leaf(1), Leaf(2)}
	n := Node(children...)
	children[0] = Leaf(100)
	assert.Equal(t, 1, n.Child(0).Value())

	got := n.Children()
	got[1] = Leaf(100)
	assert.Equal(t, 2, n.Child(1).Value())
}

func TestWith(t *testing.T) {
	n := Node(Leaf(1), Leaf(2))
	m := n.With(1, Leaf(5))
	assert.Equal(t, 2, n.Child(1).Value())
	assert.Equal(t, 5, m.Child(1).Value())
}

func TestLeavesAndFlatten(t *testing.T) {
	tr := sample()
	assert.Equal(t, []int{1, 2, 3}, tr.Leaves())

	entries := tr.Flatten()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry[int]{Path: "0", Value: 1}, entries[0])
	assert.Equal(t, Entry[int]{Path: "1.1", Value: 2}, entries[1])
	assert.Equal(t, Entry[int]{Path: "1.2", Value: 3}, entries[2])

	sub, err := tr.Get("1.2")
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Value())

	_, err = tr.Get("4")
	assert.Error(t, err)
	_, err = tr.Get("x")
	assert.Error(t, err)
}

func TestMap(t *testing.T) {
	tr := sample()
	s := Map(tr, strconv.Itoa)
	assert.True(t, SameStructure(tr, s))
	assert.Equal(t, []string{"1", "2", "3"}, s.Leaves())

	_, err := MapErr(tr, func(v int) (int, error) {
		if v == 2 {
			return 0, errors.New("boom")
		}
		return v, nil
	})
	assert.EqualError(t, err, "boom")
}

func TestSameStructure(t *testing.T) {
	assert.True(t, SameStructure(sample(), sample()))
	assert.False(t, SameStructure(sample(), Node(Leaf(1))))
	assert.False(t, SameStructure(Leaf(1), None[int]()))
	assert.False(t, SameStructure(Node(Leaf(1)), Node(None[int]())))
}

func TestEqual(t *testing.T) {
	eq := func(a, b int) bool { return a == b }
	assert.True(t, Equal(sample(), sample(), eq))
	assert.False(t, Equal(sample(), Map(sample(), func(v int) int { return v + 1 }), eq))
}

func TestUnflatten(t *testing.T) {
	tr := sample()
	out, err := Unflatten(tr, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out.Leaves())
	assert.True(t, SameStructure(tr, out))

	_, err = Unflatten(tr, []string{"a"})
	assert.Error(t, err)
	_, err = Unflatten(tr, []string{"a", "b", "c", "d"})
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	assert.Equal(t, "(1, (none, 2, 3), ())", sample().String())
}
