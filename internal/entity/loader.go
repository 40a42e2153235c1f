package entity

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RawRecord is an untyped record from an initial-data bucket, as parsed from
// YAML or handed over by a collaborator.
type RawRecord = map[string]any

// LoadResult summarises a bulk load.
type LoadResult struct {
	Equipment   int
	Annotations int
	Skipped     int
}

// LoadInitialData bulk-loads raw records into the store.
//
// Buckets are keyed by a collection name ("tanks", "pipes", "valves",
// "loading_areas", "annotations"). A record's kind is taken from its own
// "kind"/"type" discriminator when present, otherwise inferred from the
// bucket name. Coordinate-like records (bare x/y/z keys at the top level) are
// coerced into positions. Records are routed into the equipment or annotation
// table by discriminator; records without an id are skipped with a warning
// rather than poisoning the indices.
func (s *Store) LoadInitialData(buckets map[string][]RawRecord) (LoadResult, error) {
	var res LoadResult

	for bucket, records := range buckets {
		inferred, isAnnotation, err := kindFromBucket(bucket)
		if err != nil && !bucketHasDiscriminators(records) {
			return res, fmt.Errorf("bucket %q: %w", bucket, err)
		}

		for _, raw := range records {
			if isAnnotation || rawString(raw, "type") == "annotation" {
				a, ok := decodeAnnotation(raw)
				if !ok {
					s.logger.Warn("skipping annotation without id", "bucket", bucket)
					res.Skipped++
					continue
				}
				if upsertErr := s.UpsertAnnotation(a); upsertErr != nil {
					res.Skipped++
					continue
				}
				res.Annotations++
				continue
			}

			e, ok := decodeEquipment(raw, inferred)
			if !ok {
				s.logger.Warn("skipping equipment record", "bucket", bucket)
				res.Skipped++
				continue
			}
			if upsertErr := s.Upsert(e); upsertErr != nil {
				s.logger.Warn("skipping invalid equipment record",
					"bucket", bucket,
					"id", e.ID,
					"error", upsertErr,
				)
				res.Skipped++
				continue
			}
			res.Equipment++
		}
	}

	s.logger.Info("initial data loaded",
		"equipment", res.Equipment,
		"annotations", res.Annotations,
		"skipped", res.Skipped,
	)
	return res, nil
}

// LoadFile reads a YAML initial-data file and loads it into the store.
// The file is a map of bucket name to record list.
func (s *Store) LoadFile(path string) (LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("reading data file: %w", err)
	}

	var buckets map[string][]RawRecord
	if err := yaml.Unmarshal(data, &buckets); err != nil {
		return LoadResult{}, fmt.Errorf("parsing data file: %w", err)
	}

	return s.LoadInitialData(buckets)
}

// kindFromBucket maps a bucket name to an equipment kind, or flags the
// annotation bucket.
func kindFromBucket(bucket string) (EquipmentKind, bool, error) {
	switch normaliseBucket(bucket) {
	case "tank", "tanks":
		return KindTank, false, nil
	case "pipe", "pipes":
		return KindPipe, false, nil
	case "valve", "valves":
		return KindValve, false, nil
	case "loadingarea", "loadingareas":
		return KindLoadingArea, false, nil
	case "annotation", "annotations":
		return "", true, nil
	default:
		return "", false, ErrUnknownBucket
	}
}

// normaliseBucket lowercases a bucket name and strips separators so
// "loading_areas", "loading-areas" and "loadingAreas" all match.
func normaliseBucket(bucket string) string {
	b := strings.ToLower(strings.TrimSpace(bucket))
	b = strings.ReplaceAll(b, "_", "")
	b = strings.ReplaceAll(b, "-", "")
	return b
}

// bucketHasDiscriminators reports whether every record in the bucket carries
// its own kind discriminator, making bucket-name inference unnecessary.
func bucketHasDiscriminators(records []RawRecord) bool {
	if len(records) == 0 {
		return false
	}
	for _, raw := range records {
		if rawString(raw, "kind") == "" && rawString(raw, "type") == "" {
			return false
		}
	}
	return true
}

// decodeEquipment converts a raw record into typed Equipment. Returns false
// when the record has no id.
func decodeEquipment(raw RawRecord, inferred EquipmentKind) (*Equipment, bool) {
	id := rawString(raw, "id")
	if id == "" {
		return nil, false
	}

	kind := EquipmentKind(rawString(raw, "kind"))
	if kind == "" {
		if t := rawString(raw, "type"); t != "" {
			kind = EquipmentKind(t)
		} else {
			kind = inferred
		}
	}

	e := &Equipment{
		ID:          id,
		Kind:        kind,
		Name:        rawString(raw, "name"),
		Description: rawString(raw, "description"),
		ParentID:    rawOptString(raw, "parent_id", "parentId"),
		CategoryID:  rawOptString(raw, "category_id", "categoryId"),
		VersionID:   rawOptString(raw, "version_id", "versionId"),
		Position:    decodePosition(raw),
		Metadata:    rawMap(raw, "metadata"),
	}

	if rot, ok := raw["rotation"].(map[string]any); ok {
		e.Rotation = &Rotation{
			X: rawFloat(rot, "x"),
			Y: rawFloat(rot, "y"),
			Z: rawFloat(rot, "z"),
		}
	}
	if tags, ok := raw["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				e.Tags = append(e.Tags, s)
			}
		}
	}

	decodeKindAttrs(e, raw)
	return e, true
}

// decodeKindAttrs fills the kind-specific attribute struct from either a
// nested sub-map or flat top-level keys (the shape raw exports use).
func decodeKindAttrs(e *Equipment, raw RawRecord) {
	switch e.Kind {
	case KindTank:
		attrs := rawMap(raw, "tank")
		if attrs == nil {
			attrs = raw
		}
		e.Tank = &TankAttrs{
			Level:       rawFloat(attrs, "level"),
			Capacity:    rawFloat(attrs, "capacity"),
			Status:      rawString(attrs, "status"),
			Temperature: rawFloat(attrs, "temperature"),
			Product:     rawString(attrs, "product"),
		}
	case KindPipe:
		attrs := rawMap(raw, "pipe")
		if attrs == nil {
			attrs = raw
		}
		p := &PipeAttrs{
			Size:     rawString(attrs, "size"),
			Material: rawString(attrs, "material"),
			FlowRate: rawFloatKeys(attrs, "flow_rate", "flowRate"),
			Pressure: rawFloat(attrs, "pressure"),
			Product:  rawString(attrs, "product"),
		}
		if v := rawOptString(attrs, "from_id", "fromId"); v != nil {
			p.FromID = *v
		}
		if v := rawOptString(attrs, "to_id", "toId"); v != nil {
			p.ToID = *v
		}
		if ids, ok := attrs["valve_ids"].([]any); ok {
			for _, v := range ids {
				if s, ok := v.(string); ok {
					p.ValveIDs = append(p.ValveIDs, s)
				}
			}
		}
		e.Pipe = p
	case KindValve:
		attrs := rawMap(raw, "valve")
		if attrs == nil {
			attrs = raw
		}
		e.Valve = &ValveAttrs{
			ValveType: ValveType(rawStringKeys(attrs, "valve_type", "valveType")),
			State:     ValveState(rawString(attrs, "state")),
		}
	case KindLoadingArea:
		attrs := rawMap(raw, "loading_area")
		if attrs == nil {
			attrs = raw
		}
		e.LoadingArea = &LoadingAreaAttrs{
			AreaType: rawStringKeys(attrs, "area_type", "areaType"),
			Status:   rawString(attrs, "status"),
		}
	}
}

// decodeAnnotation converts a raw record into a typed Annotation. Returns
// false when the record has no id.
func decodeAnnotation(raw RawRecord) (*Annotation, bool) {
	id := rawString(raw, "id")
	if id == "" {
		return nil, false
	}

	a := &Annotation{
		ID:        id,
		TargetID:  rawOptString(raw, "target_id", "targetId"),
		Text:      rawString(raw, "text"),
		Author:    rawString(raw, "author"),
		MarkerRef: rawOptString(raw, "marker_ref", "markerRef"),
	}

	annType := rawStringKeys(raw, "annotation_type", "annotationType")
	if annType == "" {
		annType = rawString(raw, "note_type")
	}
	if annType == "" {
		annType = string(AnnotationNote)
	}
	a.Type = AnnotationType(annType)

	if p := decodePosition(raw); p != nil {
		a.Position = *p
	}

	now := time.Now().UTC()
	a.CreatedAt = now
	a.ModifiedAt = now
	return a, true
}

// decodePosition coerces a position from either a nested "position" map or
// bare coordinate-like x/y/z keys at the top level.
func decodePosition(raw RawRecord) *Position {
	if pos, ok := raw["position"].(map[string]any); ok {
		return &Position{
			X: rawFloat(pos, "x"),
			Y: rawFloat(pos, "y"),
			Z: rawFloat(pos, "z"),
		}
	}

	_, hasX := raw["x"]
	_, hasY := raw["y"]
	_, hasZ := raw["z"]
	if hasX || hasY || hasZ {
		return &Position{
			X: rawFloat(raw, "x"),
			Y: rawFloat(raw, "y"),
			Z: rawFloat(raw, "z"),
		}
	}

	return nil
}

// rawString reads a string value, tolerating absence.
func rawString(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

// rawStringKeys reads the first present string among alternative key names.
func rawStringKeys(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := rawString(raw, key); v != "" {
			return v
		}
	}
	return ""
}

// rawOptString reads an optional string reference among alternative keys.
func rawOptString(raw map[string]any, keys ...string) *string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok && v != "" {
			value := v
			return &value
		}
	}
	return nil
}

// rawFloat reads a numeric value, accepting the int/float variants YAML and
// JSON decoders produce.
func rawFloat(raw map[string]any, key string) float64 {
	switch v := raw[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// rawFloatKeys reads the first present numeric value among alternative keys.
func rawFloatKeys(raw map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if _, ok := raw[key]; ok {
			return rawFloat(raw, key)
		}
	}
	return 0
}

// rawMap reads a nested map value.
func rawMap(raw map[string]any, key string) map[string]any {
	if v, ok := raw[key].(map[string]any); ok {
		return v
	}
	return nil
}
