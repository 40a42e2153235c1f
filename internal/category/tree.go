package category

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when a category id does not exist.
var ErrNotFound = errors.New("category: not found")

// Node is a single category in the tree. The parent relation is an id
// reference; children are derived, never stored on the node.
type Node struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	ParentID *string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
}

// Tree is a CRUD-level category hierarchy with transitive descendant
// resolution. It satisfies the filter engine's CategoryResolver interface.
//
// All public methods are thread-safe.
type Tree struct {
	mu       sync.RWMutex
	nodes    map[string]*Node
	children map[string][]string
}

// NewTree creates an empty category tree.
func NewTree() *Tree {
	return &Tree{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
	}
}

// Upsert inserts or replaces a category node, reconciling the derived
// children index when the parent changes.
func (t *Tree) Upsert(n Node) error {
	if n.ID == "" {
		return errors.New("category: missing id")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.nodes[n.ID]; ok && !sameParent(prev.ParentID, n.ParentID) {
		t.unlink(prev)
	}
	cpy := n
	if n.ParentID != nil {
		p := *n.ParentID
		cpy.ParentID = &p
	}
	t.nodes[n.ID] = &cpy
	t.link(&cpy)
	return nil
}

// Remove deletes a category. Children of the removed node are re-attached to
// its parent so the tree never dangles. Returns whether the id existed.
func (t *Tree) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.nodes[id]
	if !ok {
		return false
	}

	for _, childID := range t.children[id] {
		child := t.nodes[childID]
		child.ParentID = node.ParentID
		t.link(child)
	}
	delete(t.children, id)
	t.unlink(node)
	delete(t.nodes, id)
	return true
}

// Get retrieves a category by id.
func (t *Tree) Get(id string) (Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	node, ok := t.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *node, true
}

// Children returns the direct child ids of a category, in insertion order.
func (t *Tree) Children(id string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.children[id]...)
}

// Descendants returns all transitive descendant ids of the given category,
// excluding the category itself. An unknown id degrades to an empty result.
// The visited set guards against cycles introduced by bad parent data.
func (t *Tree) Descendants(id string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []string
	visited := map[string]struct{}{id: {}}
	queue := append([]string(nil), t.children[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if _, seen := visited[next]; seen {
			continue
		}
		visited[next] = struct{}{}
		out = append(out, next)
		queue = append(queue, t.children[next]...)
	}
	return out
}

// Count returns the number of categories in the tree.
func (t *Tree) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// link adds the node to its parent's children bucket (idempotent).
// Caller must hold the write lock.
func (t *Tree) link(n *Node) {
	if n.ParentID == nil || *n.ParentID == "" {
		return
	}
	bucket := t.children[*n.ParentID]
	for _, existing := range bucket {
		if existing == n.ID {
			return
		}
	}
	t.children[*n.ParentID] = append(bucket, n.ID)
}

// unlink removes the node from its parent's children bucket.
// Caller must hold the write lock.
func (t *Tree) unlink(n *Node) {
	if n.ParentID == nil || *n.ParentID == "" {
		return
	}
	bucket := t.children[*n.ParentID]
	for i, existing := range bucket {
		if existing == n.ID {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(t.children, *n.ParentID)
		return
	}
	t.children[*n.ParentID] = bucket
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
