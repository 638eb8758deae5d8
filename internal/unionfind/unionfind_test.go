package unionfind

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnionFind_MakeSet(t *testing.T) {
	u := New(4)
	for i := 0; i < 4; i++ {
		assert.Equal(t, i, u.MakeSet())
	}
	assert.Equal(t, 4, u.Sets())
	for i := 0; i < 4; i++ {
		assert.Equal(t, i, u.Find(i))
	}
}

func TestUnionFind_Union(t *testing.T) {
	u := New(0)
	for i := 0; i < 6; i++ {
		u.MakeSet()
	}

	u.Union(0, 1)
	u.Union(2, 3)
	assert.Equal(t, u.Find(0), u.Find(1))
	assert.NotEqual(t, u.Find(1), u.Find(2))
	assert.Equal(t, 4, u.Sets())

	root := u.Union(1, 3)
	for _, n := range []int{0, 1, 2, 3} {
		assert.Equal(t, root, u.Find(n))
	}
	assert.Equal(t, 3, u.Sets())

	// Repeated unions are no-ops.
	assert.Equal(t, root, u.Union(0, 2))
	assert.Equal(t, root, u.Union(3, 3))
	assert.Equal(t, 3, u.Sets())
	assert.NotEqual(t, u.Find(4), u.Find(0))
}

func TestUnionFind_PathCompression(t *testing.T) {
	u := New(0)
	for i := 0; i < 5; i++ {
		u.MakeSet()
	}
	// Build a chain by hand to exercise compression.
	u.nodes[1].parent = 0
	u.nodes[2].parent = 1
	u.nodes[3].parent = 2
	u.nodes[4].parent = 3

	assert.Equal(t, 0, u.Find(4))
	for i := 1; i < 5; i++ {
		assert.Equal(t, 0, u.nodes[i].parent)
	}
}

func TestUnionFind_NeverLosesUnion(t *testing.T) {
	const n = 200
	rng := rand.New(rand.NewSource(7))
	u := New(n)
	for i := 0; i < n; i++ {
		u.MakeSet()
	}

	var pairs [][2]int
	for i := 0; i < 150; i++ {
		a, b := rng.Intn(n), rng.Intn(n)
		u.Union(a, b)
		pairs = append(pairs, [2]int{a, b})
		for _, p := range pairs {
			require.Equal(t, u.Find(p[0]), u.Find(p[1]), "pair %v split after %d unions", p, i)
		}
	}
}

func TestKeyed(t *testing.T) {
	k := NewKeyed[string](0)

	a := k.Node("balance.0")
	assert.Equal(t, a, k.Node("balance.0"))
	assert.Equal(t, 1, k.Sets())

	k.Union("balance.0", "balance.1")
	k.Union("balance.2", "balance.3")
	assert.Equal(t, k.Find("balance.0"), k.Find("balance.1"))
	assert.NotEqual(t, k.Find("balance.0"), k.Find("balance.2"))
	assert.Equal(t, 2, k.Sets())

	k.Union("balance.1", "balance.3")
	assert.Equal(t, k.Find("balance.0"), k.Find("balance.2"))
	assert.Equal(t, 1, k.Sets())
}
