package filter

import (
	"strings"
	"sync"

	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
)

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CategoryResolver expands a category id into its transitive descendants.
// It is satisfied by the category package's Tree.
type CategoryResolver interface {
	Descendants(id string) []string
}

// Engine evaluates named filter sets against the current store snapshot.
//
// Evaluation is pure: the engine never mutates the store, and type mismatches
// or unresolvable attributes simply fail to match rather than erroring. The
// scan is synchronous with no snapshot isolation; a caller needing a stable
// view across concurrent writes should take GetAll() once and evaluate that
// copy with ApplyTo.
//
// At most one registered set is "active" for whole-scene display; any set,
// registered or ad hoc, can be evaluated with ApplyFilters.
//
// All public methods are thread-safe.
type Engine struct {
	store      *entity.Store
	categories CategoryResolver
	logger     Logger

	mu     sync.RWMutex
	sets   map[string]*FilterSet
	active string
}

// NewEngine creates a filter engine over the given store. The resolver may be
// nil, in which case include-subcategories matches fall back to the exact
// category only.
func NewEngine(store *entity.Store, categories CategoryResolver) *Engine {
	return &Engine{
		store:      store,
		categories: categories,
		logger:     noopLogger{},
		sets:       make(map[string]*FilterSet),
	}
}

// SetLogger sets the logger for the engine.
func (en *Engine) SetLogger(logger Logger) {
	en.logger = logger
}

// CreateFilterSet registers a named filter set. Returns ErrSetExists when the
// name is taken and ErrUnnamedSet when the set has no name.
func (en *Engine) CreateFilterSet(set FilterSet) error {
	if set.Name == "" {
		return ErrUnnamedSet
	}

	en.mu.Lock()
	defer en.mu.Unlock()

	if _, exists := en.sets[set.Name]; exists {
		return ErrSetExists
	}
	cpy := set
	en.sets[set.Name] = &cpy
	en.logger.Debug("filter set created", "name", set.Name)
	return nil
}

// UpdateFilterSet replaces a registered set's components.
func (en *Engine) UpdateFilterSet(set FilterSet) error {
	if set.Name == "" {
		return ErrUnnamedSet
	}

	en.mu.Lock()
	defer en.mu.Unlock()

	if _, exists := en.sets[set.Name]; !exists {
		return ErrSetNotFound
	}
	cpy := set
	en.sets[set.Name] = &cpy
	return nil
}

// RemoveFilterSet unregisters a set, deactivating it first if needed.
// Returns whether the name existed.
func (en *Engine) RemoveFilterSet(name string) bool {
	en.mu.Lock()
	defer en.mu.Unlock()

	if _, exists := en.sets[name]; !exists {
		return false
	}
	if en.active == name {
		en.active = ""
	}
	delete(en.sets, name)
	return true
}

// GetFilterSet returns a copy of a registered set.
func (en *Engine) GetFilterSet(name string) (FilterSet, bool) {
	en.mu.RLock()
	defer en.mu.RUnlock()

	set, ok := en.sets[name]
	if !ok {
		return FilterSet{}, false
	}
	return *set, true
}

// ActivateFilterSet marks the named set as the one driving whole-scene
// display. Activating replaces any previously active set.
func (en *Engine) ActivateFilterSet(name string) error {
	en.mu.Lock()
	defer en.mu.Unlock()

	if _, exists := en.sets[name]; !exists {
		return ErrSetNotFound
	}
	en.active = name
	en.logger.Debug("filter set activated", "name", name)
	return nil
}

// DeactivateAll clears the active set; ApplyActiveFilters then returns the
// unfiltered snapshot.
func (en *Engine) DeactivateAll() {
	en.mu.Lock()
	defer en.mu.Unlock()
	en.active = ""
}

// ActiveFilterSet returns the name of the currently active set, if any.
func (en *Engine) ActiveFilterSet() (string, bool) {
	en.mu.RLock()
	defer en.mu.RUnlock()
	return en.active, en.active != ""
}

// ApplyActiveFilters evaluates the active set against the live store.
// With no active set it returns the full snapshot unchanged.
func (en *Engine) ApplyActiveFilters() []entity.Equipment {
	en.mu.RLock()
	var set *FilterSet
	if en.active != "" {
		set = en.sets[en.active]
	}
	en.mu.RUnlock()

	if set == nil {
		return en.store.GetAll()
	}
	return en.applySet(set, en.store.GetAll())
}

// ApplyFilters evaluates an ad hoc set (which need not be registered)
// against the live store.
func (en *Engine) ApplyFilters(set FilterSet) []entity.Equipment {
	return en.applySet(&set, en.store.GetAll())
}

// ApplyTo evaluates a set against a caller-held snapshot instead of the live
// store. This is the stable-view escape hatch for callers racing operation
// ticks.
func (en *Engine) ApplyTo(set FilterSet, snapshot []entity.Equipment) []entity.Equipment {
	return en.applySet(&set, snapshot)
}

// applySet runs the O(n·k) scan: n snapshot entries, k active components.
func (en *Engine) applySet(set *FilterSet, snapshot []entity.Equipment) []entity.Equipment {
	// Expand the category set once per scan, not per entity.
	var categorySet map[string]struct{}
	if set.Category != nil && set.Category.Enabled {
		categorySet = en.expandCategories(set.Category)
	}

	out := make([]entity.Equipment, 0, len(snapshot))
	for _, e := range snapshot {
		if matches(set, e, categorySet) {
			out = append(out, e)
		}
	}
	return out
}

// expandCategories builds the category id set matched by the component.
func (en *Engine) expandCategories(c *CategoryFilter) map[string]struct{} {
	ids := map[string]struct{}{c.CategoryID: {}}
	if c.IncludeSubcategories && en.categories != nil {
		for _, id := range en.categories.Descendants(c.CategoryID) {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// matches reports whether e satisfies every active component of the set.
func matches(set *FilterSet, e entity.Equipment, categorySet map[string]struct{}) bool {
	for _, pred := range set.Predicates {
		if pred != nil && !pred(e) {
			return false
		}
	}
	if f := set.Spatial; f != nil && f.Enabled && !matchSpatial(f, e) {
		return false
	}
	if f := set.Text; f != nil && f.Enabled && !matchText(f, e) {
		return false
	}
	if f := set.Property; f != nil && f.Enabled && !matchProperty(f, e) {
		return false
	}
	if set.Category != nil && set.Category.Enabled && !matchCategory(categorySet, e) {
		return false
	}
	if f := set.State; f != nil && f.Enabled && !matchMembership(e, "status", f.Statuses) {
		return false
	}
	if f := set.Product; f != nil && f.Enabled && !matchMembership(e, "product", f.Products) {
		return false
	}
	return true
}

// matchSpatial implements the center+radius test. Equipment without a
// position never matches; an entity exactly at the center matches for any
// radius >= 0.
func matchSpatial(f *SpatialFilter, e entity.Equipment) bool {
	if e.Position == nil {
		return false
	}
	return e.Position.DistanceTo(f.Center) <= f.Radius
}

// matchText performs a lower-cased substring search across the configured
// fields, matching when any field contains the query.
func matchText(f *TextFilter, e entity.Equipment) bool {
	query := strings.ToLower(f.Query)
	if query == "" {
		return true
	}

	fields := f.Fields
	if len(fields) == 0 {
		fields = DefaultTextFields
	}

	for _, field := range fields {
		v, ok := attributeValue(e, field)
		if !ok {
			continue
		}
		s, ok := toString(v)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// matchProperty applies the component's operator. Any type mismatch fails
// the match without erroring.
func matchProperty(f *PropertyFilter, e entity.Equipment) bool {
	v, ok := attributeValue(e, f.Field)
	if !ok {
		return false
	}

	switch f.Op {
	case OpEquals:
		eq, ok := looseEqual(v, f.Value)
		return ok && eq
	case OpNotEquals:
		eq, ok := looseEqual(v, f.Value)
		return ok && !eq
	case OpContains:
		haystack, ok1 := toString(v)
		needle, ok2 := toString(f.Value)
		return ok1 && ok2 && strings.Contains(haystack, needle)
	case OpGreaterThan:
		a, ok1 := toFloat(v)
		b, ok2 := toFloat(f.Value)
		return ok1 && ok2 && a > b
	case OpLessThan:
		a, ok1 := toFloat(v)
		b, ok2 := toFloat(f.Value)
		return ok1 && ok2 && a < b
	case OpBetween:
		a, ok1 := toFloat(v)
		low, ok2 := toFloat(f.Value)
		high, ok3 := toFloat(f.Value2)
		return ok1 && ok2 && ok3 && a >= low && a <= high
	default:
		return false
	}
}

// looseEqual compares two values numerically when both are numeric, else as
// strings when both are strings. The second return value reports
// comparability.
func looseEqual(a, b any) (equal bool, ok bool) {
	if fa, okA := toFloat(a); okA {
		if fb, okB := toFloat(b); okB {
			return fa == fb, true
		}
		return false, false
	}
	if sa, okA := toString(a); okA {
		if sb, okB := toString(b); okB {
			return sa == sb, true
		}
		return false, false
	}
	return false, false
}

// matchCategory tests membership of the equipment's category in the expanded
// category set.
func matchCategory(categorySet map[string]struct{}, e entity.Equipment) bool {
	if e.CategoryID == nil {
		return false
	}
	_, ok := categorySet[*e.CategoryID]
	return ok
}

// matchMembership tests a string attribute against an allowed value set.
// Equipment not exposing the attribute never matches.
func matchMembership(e entity.Equipment, field string, allowed []string) bool {
	v, ok := attributeValue(e, field)
	if !ok {
		return false
	}
	s, ok := toString(v)
	if !ok {
		return false
	}
	for _, want := range allowed {
		if s == want {
			return true
		}
	}
	return false
}
