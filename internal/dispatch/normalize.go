package dispatch

import "encoding/json"

// normalizeArrayFields parses fields in arrayFields that arrived as a
// JSON-encoded string into a native array, leaving everything else
// untouched. Any other type mismatch is left for schema validation to
// reject.
func normalizeArrayFields(raw map[string]json.RawMessage, arrayFields []string) map[string]json.RawMessage {
	if len(arrayFields) == 0 {
		return raw
	}
	out := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	for _, field := range arrayFields {
		v, ok := out[field]
		if !ok {
			continue
		}
		var asString string
		if err := json.Unmarshal(v, &asString); err != nil {
			continue // not a string; leave as-is for validation to judge
		}
		var asArray []string
		if err := json.Unmarshal([]byte(asString), &asArray); err != nil {
			continue // not a JSON array either; leave the string for validation to reject
		}
		reencoded, err := json.Marshal(asArray)
		if err != nil {
			continue
		}
		out[field] = reencoded
	}
	return out
}
