package filter

import (
	"errors"
	"sort"
	"testing"

	"github.com/Dicommunitas/terminal-3d-core/internal/category"
	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
)

func strPtr(s string) *string { return &s }

func testStore(t *testing.T) *entity.Store {
	t.Helper()
	store := entity.NewStore()

	records := []*entity.Equipment{
		{
			ID:         "T1",
			Kind:       entity.KindTank,
			Name:       "Diesel Tank 1",
			CategoryID: strPtr("cat-tanks"),
			Position:   &entity.Position{X: 0, Y: 0, Z: 0},
			Tank:       &entity.TankAttrs{Level: 0.5, Capacity: 1000, Status: "operational", Product: "diesel"},
		},
		{
			ID:         "T2",
			Kind:       entity.KindTank,
			Name:       "Gasoline Tank 2",
			CategoryID: strPtr("cat-tanks-heavy"),
			Position:   &entity.Position{X: 10, Y: 0, Z: 0},
			Tank:       &entity.TankAttrs{Level: 0.9, Capacity: 500, Status: "maintenance", Product: "gasoline"},
		},
		{
			ID:       "P1",
			Kind:     entity.KindPipe,
			Name:     "Transfer Line",
			Position: &entity.Position{X: 5, Y: 0, Z: 0},
			Pipe:     &entity.PipeAttrs{Size: "12in", FlowRate: 0, FromID: "T1", ToID: "T2", Product: "diesel"},
		},
		{
			ID:    "V1",
			Kind:  entity.KindValve,
			Name:  "Gate Valve 1",
			Valve: &entity.ValveAttrs{ValveType: entity.ValveTypeGate, State: entity.ValveStateOpen},
		},
	}
	for _, r := range records {
		if err := store.Upsert(r); err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}
	return store
}

func testCategories(t *testing.T) *category.Tree {
	t.Helper()
	tree := category.NewTree()
	nodes := []category.Node{
		{ID: "cat-tanks", Name: "Tanks"},
		{ID: "cat-tanks-heavy", Name: "Heavy Tanks", ParentID: strPtr("cat-tanks")},
	}
	for _, n := range nodes {
		if err := tree.Upsert(n); err != nil {
			t.Fatalf("seed category %s: %v", n.ID, err)
		}
	}
	return tree
}

func ids(result []entity.Equipment) []string {
	out := make([]string, 0, len(result))
	for _, e := range result {
		out = append(out, e.ID)
	}
	sort.Strings(out)
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSetLifecycle(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	if err := en.CreateFilterSet(FilterSet{}); !errors.Is(err, ErrUnnamedSet) {
		t.Fatalf("expected ErrUnnamedSet, got %v", err)
	}
	if err := en.CreateFilterSet(FilterSet{Name: "tanks"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := en.CreateFilterSet(FilterSet{Name: "tanks"}); !errors.Is(err, ErrSetExists) {
		t.Fatalf("expected ErrSetExists, got %v", err)
	}
	if err := en.UpdateFilterSet(FilterSet{Name: "missing"}); !errors.Is(err, ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound, got %v", err)
	}
	if err := en.ActivateFilterSet("missing"); !errors.Is(err, ErrSetNotFound) {
		t.Fatalf("expected ErrSetNotFound on activate, got %v", err)
	}

	if err := en.ActivateFilterSet("tanks"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if name, ok := en.ActiveFilterSet(); !ok || name != "tanks" {
		t.Fatalf("active = %q, %v", name, ok)
	}

	// Removing the active set deactivates it.
	if !en.RemoveFilterSet("tanks") {
		t.Fatal("remove returned false for existing set")
	}
	if _, ok := en.ActiveFilterSet(); ok {
		t.Fatal("set still active after removal")
	}
	if en.RemoveFilterSet("tanks") {
		t.Fatal("remove returned true for missing set")
	}
}

func TestNoActiveSetReturnsFullSnapshot(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	got := en.ApplyActiveFilters()
	if want := []string{"P1", "T1", "T2", "V1"}; !equalIDs(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
}

func TestEmptySetPassesEverything(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	got := en.ApplyFilters(FilterSet{Name: "empty"})
	if len(got) != 4 {
		t.Fatalf("empty set matched %d of 4", len(got))
	}
}

func TestSpatialFilter(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	// Radius reaches T1 (distance 0) and P1 (distance 5) but not T2
	// (distance 10). V1 has no position and never matches.
	set := FilterSet{Spatial: NewSpatialFilter(entity.Position{}, 5)}
	if got, want := ids(en.ApplyFilters(set)), []string{"P1", "T1"}; !equalIDs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// Exactly at the boundary matches; just inside the boundary excludes.
	set.Spatial = NewSpatialFilter(entity.Position{}, 10)
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"P1", "T1", "T2"}) {
		t.Fatalf("boundary: got %v", got)
	}
	set.Spatial = NewSpatialFilter(entity.Position{}, 9.999)
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"P1", "T1"}) {
		t.Fatalf("inside boundary: got %v", got)
	}
}

func TestTextFilter(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	set := FilterSet{Text: NewTextFilter("TANK")}
	if got, want := ids(en.ApplyFilters(set)), []string{"T1", "T2"}; !equalIDs(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// Custom field set restricts the search.
	set.Text = &TextFilter{Enabled: true, Query: "t1", Fields: []string{"id"}}
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T1"}) {
		t.Fatalf("id-only search: got %v", got)
	}

	// Empty query matches everything.
	set.Text = NewTextFilter("")
	if got := en.ApplyFilters(set); len(got) != 4 {
		t.Fatalf("empty query matched %d of 4", len(got))
	}
}

func TestPropertyFilterOperators(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	cases := []struct {
		name string
		prop *PropertyFilter
		want []string
	}{
		{"equals", NewPropertyFilter("status", OpEquals, "operational"), []string{"T1"}},
		{"equals numeric", NewPropertyFilter("capacity", OpEquals, 1000), []string{"T1"}},
		{"not equals", NewPropertyFilter("status", OpNotEquals, "operational"), []string{"T2"}},
		{"contains", NewPropertyFilter("status", OpContains, "main"), []string{"T2"}},
		{"greater than", NewPropertyFilter("level", OpGreaterThan, 0.6), []string{"T2"}},
		{"less than", NewPropertyFilter("capacity", OpLessThan, 600), []string{"T2"}},
		{"between", NewBetweenFilter("level", 0.4, 0.6), []string{"T1"}},
		{"between inclusive", NewBetweenFilter("level", 0.5, 0.9), []string{"T1", "T2"}},
		// Ordering against a string value is a type mismatch: nothing matches.
		{"type mismatch", NewPropertyFilter("level", OpGreaterThan, "high"), []string{}},
		// Equipment without the attribute never matches.
		{"missing attribute", NewPropertyFilter("octane", OpEquals, 95), []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(en.ApplyFilters(FilterSet{Property: tc.prop}))
			if !equalIDs(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCategoryFilter(t *testing.T) {
	en := NewEngine(testStore(t), testCategories(t))

	// Exact category only.
	set := FilterSet{Category: NewCategoryFilter("cat-tanks", false)}
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T1"}) {
		t.Fatalf("exact: got %v", got)
	}

	// Subtree expansion picks up the heavy-tanks child.
	set.Category = NewCategoryFilter("cat-tanks", true)
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T1", "T2"}) {
		t.Fatalf("subtree: got %v", got)
	}
}

func TestCategoryFilterWithoutResolver(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	// No resolver: IncludeSubcategories degrades to the exact category.
	set := FilterSet{Category: NewCategoryFilter("cat-tanks", true)}
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T1"}) {
		t.Fatalf("got %v", got)
	}
}

func TestStateAndProductFilters(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	// Valve state answers the status attribute, so state filters cross kinds.
	set := FilterSet{State: NewStateFilter("operational", "open")}
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T1", "V1"}) {
		t.Fatalf("state: got %v", got)
	}

	set = FilterSet{Product: NewProductFilter("diesel")}
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"P1", "T1"}) {
		t.Fatalf("product: got %v", got)
	}
}

func TestComponentsCombineWithAND(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	set := FilterSet{
		Text:     NewTextFilter("tank"),
		Property: NewPropertyFilter("level", OpLessThan, 0.8),
	}
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T1"}) {
		t.Fatalf("got %v", got)
	}

	// Disabling a component restores its always-true behavior.
	set.Property.Enabled = false
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T1", "T2"}) {
		t.Fatalf("disabled component: got %v", got)
	}
}

func TestOpaquePredicates(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	set := FilterSet{
		Predicates: []Predicate{
			func(e entity.Equipment) bool { return e.Kind == entity.KindTank },
			func(e entity.Equipment) bool { return e.Tank != nil && e.Tank.Capacity >= 1000 },
		},
	}
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T1"}) {
		t.Fatalf("got %v", got)
	}
}

func TestActiveSetDrivesApplyActiveFilters(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	set := FilterSet{Name: "valves", Property: NewPropertyFilter("kind", OpEquals, "valve")}
	if err := en.CreateFilterSet(set); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := en.ActivateFilterSet("valves"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := ids(en.ApplyActiveFilters()); !equalIDs(got, []string{"V1"}) {
		t.Fatalf("active: got %v", got)
	}

	en.DeactivateAll()
	if got := en.ApplyActiveFilters(); len(got) != 4 {
		t.Fatalf("deactivated engine matched %d of 4", len(got))
	}
}

func TestApplyToEvaluatesCallerSnapshot(t *testing.T) {
	store := testStore(t)
	en := NewEngine(store, nil)

	snapshot := store.GetAll()
	if !store.Delete("T1") {
		t.Fatal("delete T1")
	}

	// The held snapshot still contains T1 even though the store moved on.
	set := FilterSet{Property: NewPropertyFilter("kind", OpEquals, "tank")}
	if got := ids(en.ApplyTo(set, snapshot)); !equalIDs(got, []string{"T1", "T2"}) {
		t.Fatalf("snapshot: got %v", got)
	}
	if got := ids(en.ApplyFilters(set)); !equalIDs(got, []string{"T2"}) {
		t.Fatalf("live: got %v", got)
	}
}

func TestGetFilterSetReturnsCopy(t *testing.T) {
	en := NewEngine(testStore(t), nil)

	if err := en.CreateFilterSet(FilterSet{Name: "a", Text: NewTextFilter("tank")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, ok := en.GetFilterSet("a")
	if !ok {
		t.Fatal("set not found")
	}
	got.Name = "mutated"

	again, _ := en.GetFilterSet("a")
	if again.Name != "a" {
		t.Fatal("mutation of returned set leaked into the engine")
	}
}
