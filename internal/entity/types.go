package entity

import (
	"math"
	"time"
)

// Equipment represents a physical piece of terminal equipment tracked by the
// store. The Kind tag selects which of the kind-specific attribute structs is
// populated; exactly one of Tank/Pipe/Valve/LoadingArea should be non-nil for a
// well-formed record.
type Equipment struct {
	// Identity
	ID   string        `json:"id" yaml:"id"`
	Kind EquipmentKind `json:"kind" yaml:"kind"`

	// Descriptive attributes
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Ownership is expressed as an id reference only; the parent/child
	// relation is derived from the store's parent index, never a pointer.
	ParentID   *string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	CategoryID *string `json:"category_id,omitempty" yaml:"category_id,omitempty"`
	VersionID  *string `json:"version_id,omitempty" yaml:"version_id,omitempty"`

	// Spatial placement
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`
	Rotation *Rotation `json:"rotation,omitempty" yaml:"rotation,omitempty"`

	// Free-form metadata
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Kind-specific attributes
	Tank        *TankAttrs        `json:"tank,omitempty" yaml:"tank,omitempty"`
	Pipe        *PipeAttrs        `json:"pipe,omitempty" yaml:"pipe,omitempty"`
	Valve       *ValveAttrs       `json:"valve,omitempty" yaml:"valve,omitempty"`
	LoadingArea *LoadingAreaAttrs `json:"loading_area,omitempty" yaml:"loading_area,omitempty"`
}

// DeepCopy creates a complete independent copy of the Equipment.
// All pointer, map and slice fields are cloned so modifications to the copy
// do not affect the original. This is essential for store isolation.
func (e *Equipment) DeepCopy() *Equipment {
	if e == nil {
		return nil
	}

	cpy := *e // Shallow copy of value fields

	cpy.ParentID = copyStringPtr(e.ParentID)
	cpy.CategoryID = copyStringPtr(e.CategoryID)
	cpy.VersionID = copyStringPtr(e.VersionID)

	if e.Tags != nil {
		cpy.Tags = make([]string, len(e.Tags))
		copy(cpy.Tags, e.Tags)
	}
	if e.Position != nil {
		p := *e.Position
		cpy.Position = &p
	}
	if e.Rotation != nil {
		r := *e.Rotation
		cpy.Rotation = &r
	}
	cpy.Metadata = deepCopyMap(e.Metadata)

	if e.Tank != nil {
		t := *e.Tank
		cpy.Tank = &t
	}
	if e.Pipe != nil {
		p := *e.Pipe
		p.ValveIDs = append([]string(nil), e.Pipe.ValveIDs...)
		cpy.Pipe = &p
	}
	if e.Valve != nil {
		v := *e.Valve
		cpy.Valve = &v
	}
	if e.LoadingArea != nil {
		l := *e.LoadingArea
		cpy.LoadingArea = &l
	}

	return &cpy
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives (string, bool, int, float64, etc.) are safe to copy by value
		return v
	}
}

// Position is a point in scene space.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// DistanceTo returns the Euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	dz := p.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Rotation holds Euler angles in radians.
type Rotation struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// EquipmentKind discriminates the equipment variants.
type EquipmentKind string

// EquipmentKind constants.
const (
	KindTank        EquipmentKind = "tank"
	KindPipe        EquipmentKind = "pipe"
	KindValve       EquipmentKind = "valve"
	KindLoadingArea EquipmentKind = "loading_area"
)

// AllKinds returns all valid equipment kind values.
func AllKinds() []EquipmentKind {
	return []EquipmentKind{KindTank, KindPipe, KindValve, KindLoadingArea}
}

// TankAttrs holds tank-specific attributes.
// Level is a fill fraction in [0,1]; Capacity is the absolute volume.
type TankAttrs struct {
	Level       float64 `json:"level" yaml:"level"`
	Capacity    float64 `json:"capacity" yaml:"capacity"`
	Status      string  `json:"status,omitempty" yaml:"status,omitempty"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	Product     string  `json:"product,omitempty" yaml:"product,omitempty"`
}

// AvailableVolume returns the absolute volume currently held.
func (t TankAttrs) AvailableVolume() float64 {
	return t.Level * t.Capacity
}

// Headroom returns the absolute volume the tank can still accept.
func (t TankAttrs) Headroom() float64 {
	return (1 - t.Level) * t.Capacity
}

// PipeAttrs holds pipe-specific attributes. From/To reference the connected
// equipment ids; they are not referentially enforced.
type PipeAttrs struct {
	Size     string   `json:"size,omitempty" yaml:"size,omitempty"`
	Material string   `json:"material,omitempty" yaml:"material,omitempty"`
	FlowRate float64  `json:"flow_rate" yaml:"flow_rate"`
	Pressure float64  `json:"pressure,omitempty" yaml:"pressure,omitempty"`
	FromID   string   `json:"from_id,omitempty" yaml:"from_id,omitempty"`
	ToID     string   `json:"to_id,omitempty" yaml:"to_id,omitempty"`
	ValveIDs []string `json:"valve_ids,omitempty" yaml:"valve_ids,omitempty"`
	Product  string   `json:"product,omitempty" yaml:"product,omitempty"`
}

// ValveAttrs holds valve-specific attributes.
type ValveAttrs struct {
	ValveType ValveType  `json:"valve_type" yaml:"valve_type"`
	State     ValveState `json:"state" yaml:"state"`
}

// ValveType classifies the valve construction. Check valves cannot be
// actuated manually.
type ValveType string

// ValveType constants.
const (
	ValveTypeGate      ValveType = "gate"
	ValveTypeBall      ValveType = "ball"
	ValveTypeButterfly ValveType = "butterfly"
	ValveTypeGlobe     ValveType = "globe"
	ValveTypeCheck     ValveType = "check"
)

// ValveState is the commanded/observed state of a valve.
type ValveState string

// ValveState constants.
const (
	ValveStateOpen        ValveState = "open"
	ValveStateClosed      ValveState = "closed"
	ValveStatePartial     ValveState = "partial"
	ValveStateMaintenance ValveState = "maintenance"
	ValveStateFault       ValveState = "fault"
)

// AllValveStates returns all valid valve state values.
func AllValveStates() []ValveState {
	return []ValveState{
		ValveStateOpen, ValveStateClosed, ValveStatePartial,
		ValveStateMaintenance, ValveStateFault,
	}
}

// LoadingAreaAttrs holds loading-area-specific attributes.
type LoadingAreaAttrs struct {
	AreaType string `json:"area_type,omitempty" yaml:"area_type,omitempty"`
	Status   string `json:"status,omitempty" yaml:"status,omitempty"`
}

// AnnotationType classifies annotation records.
type AnnotationType string

// AnnotationType constants.
const (
	AnnotationNote        AnnotationType = "note"
	AnnotationWarning     AnnotationType = "warning"
	AnnotationIssue       AnnotationType = "issue"
	AnnotationDocLink     AnnotationType = "doc_link"
	AnnotationMeasurement AnnotationType = "measurement"
)

// Annotation is a world-anchored note attached to the scene, optionally
// targeting a piece of equipment. MarkerRef points at a visual marker owned by
// the rendering collaborator; the store never dereferences it.
type Annotation struct {
	ID         string         `json:"id" yaml:"id"`
	TargetID   *string        `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Position   Position       `json:"position" yaml:"position"`
	Text       string         `json:"text" yaml:"text"`
	Author     string         `json:"author,omitempty" yaml:"author,omitempty"`
	Type       AnnotationType `json:"type" yaml:"type"`
	MarkerRef  *string        `json:"marker_ref,omitempty" yaml:"marker_ref,omitempty"`
	CreatedAt  time.Time      `json:"created_at" yaml:"created_at"`
	ModifiedAt time.Time      `json:"modified_at" yaml:"modified_at"`
}

// DeepCopy creates an independent copy of the Annotation.
func (a *Annotation) DeepCopy() *Annotation {
	if a == nil {
		return nil
	}
	cpy := *a
	cpy.TargetID = copyStringPtr(a.TargetID)
	cpy.MarkerRef = copyStringPtr(a.MarkerRef)
	return &cpy
}
