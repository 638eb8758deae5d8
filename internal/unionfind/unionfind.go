// Package unionfind implements an arena-backed disjoint-set forest used to
// connect transactions that touch the same resources.
package unionfind

// node is one arena slot. A root points to itself.
type node struct {
	parent int
	rank   int
}

// UnionFind is a disjoint-set forest over integer node ids.
// It is not safe for concurrent use; each grouping run owns its own instance.
type UnionFind struct {
	nodes []node
	sets  int
}

// New creates an empty forest with room for capacity nodes.
func New(capacity int) *UnionFind {
	if capacity < 0 {
		capacity = 0
	}
	return &UnionFind{nodes: make([]node, 0, capacity)}
}

// MakeSet adds a singleton node and returns its id.
func (u *UnionFind) MakeSet() int {
	id := len(u.nodes)
	u.nodes = append(u.nodes, node{parent: id})
	u.sets++
	return id
}

// Sets returns the number of disjoint sets.
func (u *UnionFind) Sets() int {
	return u.sets
}

// Find returns the representative of x and compresses the path to it.
func (u *UnionFind) Find(x int) int {
	root := x
	for u.nodes[root].parent != root {
		root = u.nodes[root].parent
	}
	for u.nodes[x].parent != root {
		next := u.nodes[x].parent
		u.nodes[x].parent = root
		x = next
	}
	return root
}

// Union merges the sets containing a and b and returns the new root.
// Joining nodes already in the same set changes nothing.
func (u *UnionFind) Union(a, b int) int {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return ra
	}

	switch {
	case u.nodes[ra].rank < u.nodes[rb].rank:
		ra, rb = rb, ra
	case u.nodes[ra].rank == u.nodes[rb].rank:
		u.nodes[ra].rank++
	}
	u.nodes[rb].parent = ra
	u.sets--
	return ra
}

// Keyed maps comparable keys onto arena nodes, creating nodes on first use.
type Keyed[K comparable] struct {
	uf  *UnionFind
	ids map[K]int
}

// NewKeyed creates an empty keyed forest.
func NewKeyed[K comparable](capacity int) *Keyed[K] {
	return &Keyed[K]{
		uf:  New(capacity),
		ids: make(map[K]int, capacity),
	}
}

// Node returns the node id for key, adding it if absent.
func (k *Keyed[K]) Node(key K) int {
	if id, ok := k.ids[key]; ok {
		return id
	}
	id := k.uf.MakeSet()
	k.ids[key] = id
	return id
}

// Find returns the representative node id of key's set.
func (k *Keyed[K]) Find(key K) int {
	return k.uf.Find(k.Node(key))
}

// Union merges the sets of a and b.
func (k *Keyed[K]) Union(a, b K) int {
	return k.uf.Union(k.Node(a), k.Node(b))
}

// Sets returns the number of disjoint sets.
func (k *Keyed[K]) Sets() int {
	return k.uf.Sets()
}
