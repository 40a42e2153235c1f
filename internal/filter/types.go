package filter

import (
	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
)

// Predicate is an opaque equipment test supplied by a caller.
type Predicate func(entity.Equipment) bool

// Operator is the comparison applied by a property filter.
type Operator string

// Operator constants.
const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpBetween     Operator = "between"
)

// DefaultTextFields are the fields a text filter searches when the caller
// does not configure its own set.
var DefaultTextFields = []string{"id", "name", "description", "kind"}

// FilterSet is a named, composable collection of independently-toggleable
// filter components. An entity passes the set iff it satisfies every active
// component; inactive components are skipped (treated as always-true). A set
// with no active components passes everything.
type FilterSet struct {
	Name string

	// Predicates are opaque tests evaluated in order. Unlike the struct
	// components they have no individual toggle; remove one to disable it.
	Predicates []Predicate

	Spatial  *SpatialFilter
	Text     *TextFilter
	Property *PropertyFilter
	Category *CategoryFilter
	State    *StateFilter
	Product  *ProductFilter
}

// SpatialFilter matches equipment within Radius of Center. Equipment without
// a position never matches.
type SpatialFilter struct {
	Enabled bool
	Center  entity.Position
	Radius  float64
}

// TextFilter matches when any configured field contains the lower-cased
// search string.
type TextFilter struct {
	Enabled bool
	Query   string
	// Fields defaults to DefaultTextFields when empty.
	Fields []string
}

// PropertyFilter compares a named attribute against one or two values.
// A type mismatch (e.g. contains on a number) never matches; it is not an
// error.
type PropertyFilter struct {
	Enabled bool
	Field   string
	Op      Operator
	Value   any
	// Value2 is the upper bound for OpBetween; ignored otherwise.
	Value2 any
}

// CategoryFilter matches equipment assigned to CategoryID, or to any
// transitive descendant when IncludeSubcategories is set.
type CategoryFilter struct {
	Enabled              bool
	CategoryID           string
	IncludeSubcategories bool
}

// StateFilter is a set-membership test against the status attribute.
// Only equipment exposing a status can match.
type StateFilter struct {
	Enabled  bool
	Statuses []string
}

// ProductFilter is a set-membership test against the product attribute.
// Only equipment exposing a product can match.
type ProductFilter struct {
	Enabled  bool
	Products []string
}

// NewSpatialFilter builds an enabled spatial component.
func NewSpatialFilter(center entity.Position, radius float64) *SpatialFilter {
	return &SpatialFilter{Enabled: true, Center: center, Radius: radius}
}

// NewTextFilter builds an enabled text component over the default field set.
func NewTextFilter(query string) *TextFilter {
	return &TextFilter{Enabled: true, Query: query}
}

// NewPropertyFilter builds an enabled property component.
func NewPropertyFilter(field string, op Operator, value any) *PropertyFilter {
	return &PropertyFilter{Enabled: true, Field: field, Op: op, Value: value}
}

// NewBetweenFilter builds an enabled property component with an inclusive
// lower and upper bound.
func NewBetweenFilter(field string, low, high any) *PropertyFilter {
	return &PropertyFilter{Enabled: true, Field: field, Op: OpBetween, Value: low, Value2: high}
}

// NewCategoryFilter builds an enabled category component.
func NewCategoryFilter(categoryID string, includeSubcategories bool) *CategoryFilter {
	return &CategoryFilter{Enabled: true, CategoryID: categoryID, IncludeSubcategories: includeSubcategories}
}

// NewStateFilter builds an enabled state component.
func NewStateFilter(statuses ...string) *StateFilter {
	return &StateFilter{Enabled: true, Statuses: statuses}
}

// NewProductFilter builds an enabled product component.
func NewProductFilter(products ...string) *ProductFilter {
	return &ProductFilter{Enabled: true, Products: products}
}
