package cluster

import (
	"logocluster/pkg/serrors"
)

// Forest is a disjoint-set forest over string elements. Every element added is
// its own root until merged; Find compresses paths and Union links by size.
// A Forest is not safe for concurrent use.
type Forest struct {
	parent map[string]string
	size   map[string]int
	sets   int
}

// NewForest returns an empty forest sized for n elements.
func NewForest(n int) *Forest {
	return &Forest{
		parent: make(map[string]string, n),
		size:   make(map[string]int, n),
	}
}

// Add inserts x as a singleton set. Adding an existing element is a no-op.
func (f *Forest) Add(x string) {
	if _, ok := f.parent[x]; ok {
		return
	}
	f.parent[x] = x
	f.size[x] = 1
	f.sets++
}

// Len returns the number of elements in the forest.
func (f *Forest) Len() int { return len(f.parent) }

// Sets returns the number of disjoint sets.
func (f *Forest) Sets() int { return f.sets }

// Find returns the root of x's set. Every node on the walk is re-pointed
// directly at the root.
func (f *Forest) Find(x string) (string, error) {
	if _, ok := f.parent[x]; !ok {
		return "", serrors.With(serrors.ErrPrecondition, "element %q is not in the forest", x)
	}

	root := x
	for f.parent[root] != root {
		root = f.parent[root]
	}
	for x != root {
		next := f.parent[x]
		f.parent[x] = root
		x = next
	}

	return root, nil
}

// Union merges the sets containing a and b and reports whether they were
// distinct. The smaller set is attached under the larger; on a tie b's root
// goes under a's.
func (f *Forest) Union(a, b string) (bool, error) {
	ra, err := f.Find(a)
	if err != nil {
		return false, err
	}
	rb, err := f.Find(b)
	if err != nil {
		return false, err
	}
	if ra == rb {
		return false, nil
	}

	if f.size[ra] < f.size[rb] {
		ra, rb = rb, ra
	}
	f.parent[rb] = ra
	f.size[ra] += f.size[rb]
	delete(f.size, rb)
	f.sets--

	return true, nil
}
