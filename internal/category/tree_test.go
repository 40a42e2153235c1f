package category

import "testing"

func parent(id string) *string { return &id }

func buildTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewTree()
	nodes := []Node{
		{ID: "root", Name: "Terminal"},
		{ID: "storage", Name: "Storage", ParentID: parent("root")},
		{ID: "tanks", Name: "Tanks", ParentID: parent("storage")},
		{ID: "spheres", Name: "Spheres", ParentID: parent("storage")},
		{ID: "transfer", Name: "Transfer", ParentID: parent("root")},
	}
	for _, n := range nodes {
		if err := tree.Upsert(n); err != nil {
			t.Fatalf("Upsert(%s) failed: %v", n.ID, err)
		}
	}
	return tree
}

func TestTree_Descendants(t *testing.T) {
	tree := buildTree(t)

	got := tree.Descendants("root")
	want := map[string]bool{"storage": true, "tanks": true, "spheres": true, "transfer": true}
	if len(got) != len(want) {
		t.Fatalf("Descendants(root) = %v, want %d ids", got, len(want))
	}
	for _, id := range got {
		if !want[id] {
			t.Errorf("unexpected descendant %q", id)
		}
	}

	if got := tree.Descendants("tanks"); len(got) != 0 {
		t.Errorf("Descendants(leaf) = %v, want empty", got)
	}
	if got := tree.Descendants("missing"); len(got) != 0 {
		t.Errorf("Descendants(missing) = %v, want empty", got)
	}
}

func TestTree_DescendantsCycleGuard(t *testing.T) {
	tree := NewTree()
	// a → b → a: bad parent data must not hang resolution
	if err := tree.Upsert(Node{ID: "a", ParentID: parent("b")}); err != nil {
		t.Fatal(err)
	}
	if err := tree.Upsert(Node{ID: "b", ParentID: parent("a")}); err != nil {
		t.Fatal(err)
	}

	got := tree.Descendants("a")
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("Descendants(a) = %v, want [b]", got)
	}
}

func TestTree_ReparentAndRemove(t *testing.T) {
	tree := buildTree(t)

	// Reparent spheres under transfer
	if err := tree.Upsert(Node{ID: "spheres", Name: "Spheres", ParentID: parent("transfer")}); err != nil {
		t.Fatal(err)
	}
	for _, id := range tree.Children("storage") {
		if id == "spheres" {
			t.Error("stale child membership after reparent")
		}
	}

	// Removing a mid-level node re-attaches its children to the grandparent
	if !tree.Remove("storage") {
		t.Fatal("Remove returned false for existing id")
	}
	node, ok := tree.Get("tanks")
	if !ok || node.ParentID == nil || *node.ParentID != "root" {
		t.Errorf("orphaned child parent = %v, want root", node.ParentID)
	}
	if tree.Remove("storage") {
		t.Error("Remove returned true for deleted id")
	}
}
