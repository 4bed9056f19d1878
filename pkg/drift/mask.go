package drift

import (
	"fmt"
	"sort"
)

// maskedMetadataFields are stripped from metadata on both sides before
// comparison; each is server-managed and never reflects a meaningful
// authoring difference.
var maskedMetadataFields = []string{
	"resourceVersion",
	"uid",
	"generation",
	"creationTimestamp",
	"managedFields",
	"selfLink",
}

// maskedAnnotations are stripped from metadata.annotations specifically,
// since both are stamped by controllers rather than authored.
var maskedAnnotations = []string{
	"kubectl.kubernetes.io/last-applied-configuration",
	"deployment.kubernetes.io/revision",
}

// maskResource returns a deep copy of obj with the masking policy applied:
// the entire status subtree is dropped, the listed metadata fields and
// annotations are dropped, and an annotations map left empty by that
// removal is dropped too so it doesn't register as a spurious difference
// against a side that never had one.
func maskResource(obj map[string]interface{}) map[string]interface{} {
	cleaned, _ := deepCopy(obj).(map[string]interface{})
	if cleaned == nil {
		return map[string]interface{}{}
	}

	delete(cleaned, "status")

	metadata, ok := cleaned["metadata"].(map[string]interface{})
	if !ok {
		return cleaned
	}

	for _, field := range maskedMetadataFields {
		delete(metadata, field)
	}

	if annotations, ok := metadata["annotations"].(map[string]interface{}); ok {
		for _, key := range maskedAnnotations {
			delete(annotations, key)
		}

		if len(annotations) == 0 {
			delete(metadata, "annotations")
		}
	}

	if len(metadata) == 0 {
		delete(cleaned, "metadata")
	}

	return cleaned
}

func deepCopy(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		copied := make(map[string]interface{}, len(v))
		for key, val := range v {
			copied[key] = deepCopy(val)
		}

		return copied
	case []interface{}:
		copied := make([]interface{}, len(v))
		for i, val := range v {
			copied[i] = deepCopy(val)
		}

		return copied
	default:
		return v
	}
}

// isEmptyValue reports whether v is nil, an empty map, or an empty slice;
// used to treat an absent key as equal to an explicitly empty one.
func isEmptyValue(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return true
	case map[string]interface{}:
		return len(value) == 0
	case []interface{}:
		return len(value) == 0
	default:
		return false
	}
}

// scalarsEqual compares two non-container values for equality, coercing
// numeric/string representations of the same value (e.g. the string "3"
// and the float64 3) to equal, since JSON/YAML round-tripping frequently
// changes a scalar's Go type without changing its meaning.
func scalarsEqual(a, b interface{}) bool {
	if a == b {
		return true
	}

	as, aIsString := a.(string)
	bs, bIsString := b.(string)

	switch {
	case aIsString && !bIsString:
		return as == fmt.Sprint(b)
	case bIsString && !aIsString:
		return bs == fmt.Sprint(a)
	default:
		return false
	}
}

// diffMaps recursively compares old and new, returning an ordered list of
// differing paths. Maps are compared key-wise (sorted for determinism),
// sequences position-wise, scalars by [scalarsEqual]. An absent key is
// treated as equal to an explicitly empty map/slice at the same path.
func diffMaps(prefix string, old, newVal map[string]interface{}) []Change {
	var changes []Change

	keys := unionKeys(old, newVal)

	for _, key := range keys {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		oldVal, oldOK := old[key]
		newValAtKey, newOK := newVal[key]

		switch {
		case oldOK && !newOK:
			if !isEmptyValue(oldVal) {
				changes = append(changes, Change{Path: path, Old: oldVal, New: nil})
			}
		case !oldOK && newOK:
			if !isEmptyValue(newValAtKey) {
				changes = append(changes, Change{Path: path, Old: nil, New: newValAtKey})
			}
		default:
			changes = append(changes, diffValues(path, oldVal, newValAtKey)...)
		}
	}

	return changes
}

func diffValues(path string, old, newVal interface{}) []Change {
	oldMap, oldIsMap := old.(map[string]interface{})
	newMap, newIsMap := newVal.(map[string]interface{})

	if oldIsMap && newIsMap {
		return diffMaps(path, oldMap, newMap)
	}

	oldSlice, oldIsSlice := old.([]interface{})
	newSlice, newIsSlice := newVal.([]interface{})

	if oldIsSlice && newIsSlice {
		return diffSlices(path, oldSlice, newSlice)
	}

	if oldIsMap != newIsMap || oldIsSlice != newIsSlice {
		if isEmptyValue(old) && isEmptyValue(newVal) {
			return nil
		}

		return []Change{{Path: path, Old: old, New: newVal}}
	}

	if scalarsEqual(old, newVal) {
		return nil
	}

	return []Change{{Path: path, Old: old, New: newVal}}
}

func diffSlices(path string, old, newVal []interface{}) []Change {
	var changes []Change

	length := len(old)
	if len(newVal) > length {
		length = len(newVal)
	}

	for i := 0; i < length; i++ {
		elemPath := fmt.Sprintf("%s[%d]", path, i)

		switch {
		case i >= len(old):
			changes = append(changes, Change{Path: elemPath, Old: nil, New: newVal[i]})
		case i >= len(newVal):
			changes = append(changes, Change{Path: elemPath, Old: old[i], New: nil})
		default:
			changes = append(changes, diffValues(elemPath, old[i], newVal[i])...)
		}
	}

	return changes
}

func unionKeys(a, b map[string]interface{}) []string {
	set := make(map[string]bool, len(a)+len(b))

	for key := range a {
		set[key] = true
	}

	for key := range b {
		set[key] = true
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
