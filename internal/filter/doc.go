// Package filter provides composable, named filter sets evaluated against
// the equipment store.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────┐
//	│                     Engine                      │
//	│                                                 │
//	│  named sets ──► active set ──► ApplyActive...   │
//	│  ad hoc set ─────────────────► ApplyFilters     │
//	│  caller snapshot ────────────► ApplyTo          │
//	└───────────────┬────────────────────┬────────────┘
//	                │ GetAll()           │ Descendants()
//	                ▼                    ▼
//	          entity.Store        CategoryResolver
//
// A FilterSet bundles independently-toggleable components: spatial
// (center+radius), text (substring over configurable fields), property
// (operator against a named attribute), category (with optional subtree
// expansion), state and product membership, plus opaque Predicates. An
// entity passes the set iff it satisfies every active component; a set with
// nothing active passes everything.
//
// Evaluation is a pure synchronous scan over a snapshot. Type mismatches and
// missing attributes fail the match silently; they are never errors. The
// engine keeps at most one registered set "active" for whole-scene display.
package filter
