package entity

import (
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Store.
// This allows different logging implementations to be used.
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

// Store is the canonical in-process table of equipment and annotation records,
// keyed by id, with derived secondary indices (by kind, by parent, by
// category, and annotations by target).
//
// Every secondary index is kept consistent with the primary table inside the
// same critical section: an id appears in an index bucket iff the stored
// record's corresponding field equals that bucket's key. Upserting an existing
// id diffs the old and new indexed fields and reconciles bucket membership
// before the new value becomes visible to readers.
//
// All records crossing the public boundary are deep copies; callers can
// safely mutate what they receive.
//
// All public methods are thread-safe.
type Store struct {
	mu          sync.RWMutex
	equipment   map[string]*Equipment
	annotations map[string]*Annotation

	byKind     map[EquipmentKind][]string
	byParent   map[string][]string
	byCategory map[string][]string
	byTarget   map[string][]string

	logger Logger
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		equipment:   make(map[string]*Equipment),
		annotations: make(map[string]*Annotation),
		byKind:      make(map[EquipmentKind][]string),
		byParent:    make(map[string][]string),
		byCategory:  make(map[string][]string),
		byTarget:    make(map[string][]string),
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Upsert inserts or replaces equipment by id.
//
// For an id already present it first diffs the old and new values of each
// indexed field (kind, parent id, category id), removes stale index
// memberships and adds new ones, then stores the new value. A record without
// an id or kind is a programmer error and fails fast rather than being
// silently indexed under an empty key.
func (s *Store) Upsert(e *Equipment) error {
	if e == nil || e.ID == "" {
		return ErrMissingID
	}
	if e.Kind == "" {
		return ErrMissingKind
	}
	if !validKind(e.Kind) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, e.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := e.DeepCopy()
	prev := s.equipment[e.ID]

	if prev != nil {
		// Reconcile secondary indices field by field. Removing stale
		// memberships before adding new ones is the only atomicity
		// boundary the store guarantees.
		if prev.Kind != next.Kind {
			indexRemove(s.byKind, prev.Kind, e.ID)
			indexAdd(s.byKind, next.Kind, e.ID)
		}
		if !equalOptional(prev.ParentID, next.ParentID) {
			indexRemoveOptional(s.byParent, prev.ParentID, e.ID)
			indexAddOptional(s.byParent, next.ParentID, e.ID)
		}
		if !equalOptional(prev.CategoryID, next.CategoryID) {
			indexRemoveOptional(s.byCategory, prev.CategoryID, e.ID)
			indexAddOptional(s.byCategory, next.CategoryID, e.ID)
		}
	} else {
		indexAdd(s.byKind, next.Kind, e.ID)
		indexAddOptional(s.byParent, next.ParentID, e.ID)
		indexAddOptional(s.byCategory, next.CategoryID, e.ID)
	}

	s.equipment[e.ID] = next
	s.logger.Debug("equipment upserted", "id", e.ID, "kind", string(e.Kind))
	return nil
}

// Delete removes the equipment and all its index memberships atomically.
// Returns whether the id previously existed. Deleted ids are terminal; a
// later upsert of the same id starts a fresh history with fresh indices.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.equipment[id]
	if !ok {
		return false
	}

	indexRemove(s.byKind, prev.Kind, id)
	indexRemoveOptional(s.byParent, prev.ParentID, id)
	indexRemoveOptional(s.byCategory, prev.CategoryID, id)
	delete(s.equipment, id)

	s.logger.Debug("equipment deleted", "id", id)
	return true
}

// GetByID retrieves equipment by id. The second return value reports whether
// the id exists; a missing id is not an error.
func (s *Store) GetByID(id string) (*Equipment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.equipment[id]
	if !ok {
		return nil, false
	}
	return e.DeepCopy(), true
}

// GetByType retrieves all equipment of the given kind, in index-insertion
// order.
func (s *Store) GetByType(kind EquipmentKind) []Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byKind[kind])
}

// GetByParent retrieves all equipment whose parent id equals parentID.
// A parent that owns nothing (or does not exist) yields an empty result.
func (s *Store) GetByParent(parentID string) []Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byParent[parentID])
}

// GetByCategory retrieves all equipment assigned to the given category id.
func (s *Store) GetByCategory(categoryID string) []Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byCategory[categoryID])
}

// GetAll returns a full snapshot of the equipment table. Callers that need a
// stable view across concurrent writes should filter this copy in memory.
func (s *Store) GetAll() []Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Equipment, 0, len(s.equipment))
	for _, kind := range AllKinds() {
		all = append(all, s.collect(s.byKind[kind])...)
	}
	return all
}

// collect copies the equipment records for the given id list, preserving
// order. Caller must hold at least a read lock.
func (s *Store) collect(ids []string) []Equipment {
	out := make([]Equipment, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.equipment[id]; ok {
			out = append(out, *e.DeepCopy())
		}
	}
	return out
}

// EquipmentCount returns the number of equipment records.
func (s *Store) EquipmentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.equipment)
}

// UpsertAnnotation inserts or replaces an annotation by id, reconciling the
// by-target index the same way Upsert reconciles the equipment indices.
// The annotation id space is independent of the equipment id space.
func (s *Store) UpsertAnnotation(a *Annotation) error {
	if a == nil || a.ID == "" {
		return ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := a.DeepCopy()
	prev := s.annotations[a.ID]

	if prev != nil {
		if !equalOptional(prev.TargetID, next.TargetID) {
			indexRemoveOptional(s.byTarget, prev.TargetID, a.ID)
			indexAddOptional(s.byTarget, next.TargetID, a.ID)
		}
	} else {
		indexAddOptional(s.byTarget, next.TargetID, a.ID)
	}

	s.annotations[a.ID] = next
	s.logger.Debug("annotation upserted", "id", a.ID, "type", string(a.Type))
	return nil
}

// DeleteAnnotation removes an annotation and its index membership.
// Returns whether the id previously existed.
func (s *Store) DeleteAnnotation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.annotations[id]
	if !ok {
		return false
	}

	indexRemoveOptional(s.byTarget, prev.TargetID, id)
	delete(s.annotations, id)
	return true
}

// GetAnnotation retrieves an annotation by id.
func (s *Store) GetAnnotation(id string) (*Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.annotations[id]
	if !ok {
		return nil, false
	}
	return a.DeepCopy(), true
}

// GetAnnotationsByTarget retrieves all annotations attached to the given
// equipment id, in index-insertion order. A missing target degrades to an
// empty result.
func (s *Store) GetAnnotationsByTarget(targetID string) []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byTarget[targetID]
	out := make([]Annotation, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.annotations[id]; ok {
			out = append(out, *a.DeepCopy())
		}
	}
	return out
}

// GetAllAnnotations returns a full snapshot of the annotation table.
func (s *Store) GetAllAnnotations() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Annotation, 0, len(s.annotations))
	for _, a := range s.annotations {
		out = append(out, *a.DeepCopy())
	}
	return out
}

// AnnotationCount returns the number of annotation records.
func (s *Store) AnnotationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.annotations)
}

// Stats returns store statistics for monitoring.
type Stats struct {
	TotalEquipment   int
	TotalAnnotations int
	ByKind           map[EquipmentKind]int
}

// GetStats returns current store statistics.
func (s *Store) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		TotalEquipment:   len(s.equipment),
		TotalAnnotations: len(s.annotations),
		ByKind:           make(map[EquipmentKind]int),
	}
	for kind, ids := range s.byKind {
		stats.ByKind[kind] = len(ids)
	}
	return stats
}

// validKind reports whether kind is one of the known equipment kinds.
func validKind(kind EquipmentKind) bool {
	for _, k := range AllKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// equalOptional compares two optional string references by value.
func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// indexAdd appends id to the bucket for key. Insertion is idempotent: an id
// already present in the bucket is left where it is.
func indexAdd[K comparable](index map[K][]string, key K, id string) {
	bucket := index[key]
	for _, existing := range bucket {
		if existing == id {
			return
		}
	}
	index[key] = append(bucket, id)
}

// indexRemove removes id from the bucket for key. Removing the last id
// deletes the bucket itself so empty buckets never accumulate.
func indexRemove[K comparable](index map[K][]string, key K, id string) {
	bucket := index[key]
	for i, existing := range bucket {
		if existing == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(index, key)
		return
	}
	index[key] = bucket
}

// indexAddOptional adds id under *key when the reference is set.
func indexAddOptional(index map[string][]string, key *string, id string) {
	if key == nil || *key == "" {
		return
	}
	indexAdd(index, *key, id)
}

// indexRemoveOptional removes id from under *key when the reference is set.
func indexRemoveOptional(index map[string][]string, key *string, id string) {
	if key == nil || *key == "" {
		return
	}
	indexRemove(index, *key, id)
}
