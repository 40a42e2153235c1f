package filter

import "github.com/Dicommunitas/terminal-3d-core/internal/entity"

// attributeValue resolves a named attribute on an equipment record. Common
// fields are checked first, then the kind-specific attribute struct, then the
// free-form metadata map. The second return value reports whether the record
// exposes the attribute at all.
func attributeValue(e entity.Equipment, field string) (any, bool) {
	switch field {
	case "id":
		return e.ID, true
	case "kind", "type":
		return string(e.Kind), true
	case "name":
		return e.Name, true
	case "description":
		return e.Description, true
	case "parent_id", "parentId":
		return optString(e.ParentID)
	case "category_id", "categoryId":
		return optString(e.CategoryID)
	case "version_id", "versionId":
		return optString(e.VersionID)
	}

	if v, ok := kindAttribute(e, field); ok {
		return v, true
	}

	if e.Metadata != nil {
		if v, ok := e.Metadata[field]; ok {
			return v, true
		}
	}

	return nil, false
}

// kindAttribute resolves the flat attribute names of the kind-specific
// structs.
func kindAttribute(e entity.Equipment, field string) (any, bool) { //nolint:gocyclo // flat attribute dispatch
	switch {
	case e.Tank != nil:
		switch field {
		case "level":
			return e.Tank.Level, true
		case "capacity":
			return e.Tank.Capacity, true
		case "status":
			return e.Tank.Status, true
		case "temperature":
			return e.Tank.Temperature, true
		case "product":
			return stringAttr(e.Tank.Product)
		}
	case e.Pipe != nil:
		switch field {
		case "size":
			return e.Pipe.Size, true
		case "material":
			return e.Pipe.Material, true
		case "flow_rate", "flowRate":
			return e.Pipe.FlowRate, true
		case "pressure":
			return e.Pipe.Pressure, true
		case "product":
			return stringAttr(e.Pipe.Product)
		}
	case e.Valve != nil:
		switch field {
		case "state", "status":
			return string(e.Valve.State), true
		case "valve_type", "valveType":
			return string(e.Valve.ValveType), true
		}
	case e.LoadingArea != nil:
		switch field {
		case "status":
			return e.LoadingArea.Status, true
		case "area_type", "areaType":
			return e.LoadingArea.AreaType, true
		}
	}
	return nil, false
}

func optString(s *string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return *s, true
}

func stringAttr(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

// toFloat coerces numeric values of the types YAML/JSON decoding and typed
// attributes produce. Strings are not coerced; that would blur the
// type-mismatch rule.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// toString reports a value as a string when it is one.
func toString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
