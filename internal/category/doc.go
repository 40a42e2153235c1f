// Package category provides the category tree collaborator.
//
// Categories form a simple parent/child hierarchy used to group equipment.
// The tree's only non-trivial operation is Descendants, which the filter
// engine uses to expand an include-subcategories match into the full
// transitive set.
package category
