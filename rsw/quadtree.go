package rsw

import (
	"fmt"

	"github.com/rorebuild/grf/internal/bin"
)

// Quad tree dimensions. The tree is complete, so it is stored flat in
// pre-order and navigated by index arithmetic.
const (
	QuadTreeDepth = 5
	QuadTreeSize  = 1365 // (4^(QuadTreeDepth+1) - 1) / 3
)

// QuadNode is the bounding range of a quad tree node.
type QuadNode struct {
	Max      [3]float32
	Min      [3]float32
	HalfSize [3]float32
	Center   [3]float32
}

// Contains checks whether x, z is within the horizontal range of n.
func (n *QuadNode) Contains(x, z float32) bool {
	return x >= n.Min[0] && x <= n.Max[0] && z >= n.Min[2] && z <= n.Max[2]
}

// QuadTree is the spatial index of a world. Versions before 2.1 do not store
// one, and have a zero tree.
type QuadTree [QuadTreeSize]QuadNode

// IsZero checks whether every node of t is zero.
func (t *QuadTree) IsZero() bool {
	return *t == QuadTree{}
}

// SubtreeSize returns the number of nodes in a subtree whose root is at the
// provided depth.
func SubtreeSize(depth int) int {
	if depth < 0 || depth > QuadTreeDepth {
		return 0
	}
	return ((1 << (2 * (QuadTreeDepth - depth + 1))) - 1) / 3
}

// Child returns the index of child k (0 to 3) of the node at index i and the
// provided depth, or -1 if the node is a leaf.
func Child(i, depth, k int) int {
	if depth >= QuadTreeDepth || k < 0 || k > 3 {
		return -1
	}
	return i + 1 + k*SubtreeSize(depth+1)
}

// Walk calls fn for each node in pre-order. If fn returns false, the children
// of the node are skipped.
func (t *QuadTree) Walk(fn func(i, depth int, n *QuadNode) bool) {
	t.walk(0, 0, fn)
}

func (t *QuadTree) walk(i, depth int, fn func(int, int, *QuadNode) bool) {
	if !fn(i, depth, &t[i]) {
		return
	}
	for k := 0; k < 4; k++ {
		if c := Child(i, depth, k); c >= 0 {
			t.walk(c, depth+1, fn)
		}
	}
}

// Find returns the index of the first leaf containing x, z, or -1.
func (t *QuadTree) Find(x, z float32) int {
	found := -1
	t.Walk(func(i, depth int, n *QuadNode) bool {
		if found >= 0 || !n.Contains(x, z) {
			return false
		}
		if depth == QuadTreeDepth {
			found = i
		}
		return true
	})
	return found
}

func (t *QuadTree) deserialize(r *bin.Reader) error {
	for i := range t {
		n := &t[i]
		for _, v := range []*[3]float32{&n.Max, &n.Min, &n.HalfSize, &n.Center} {
			if err := r.F32s(v[:]); err != nil {
				return fmt.Errorf("read node %d: %w", i, err)
			}
		}
	}
	return nil
}
