package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// HighwayTag is the road type of a way as OSM tooling exports it: either a
// single value or, on merged segments, a list of values.
type HighwayTag struct {
	values   []string
	multiple bool
}

func Single(value string) HighwayTag {
	if value == "" {
		return HighwayTag{}
	}
	return HighwayTag{values: []string{value}}
}

func Multiple(values ...string) HighwayTag {
	return HighwayTag{values: append([]string(nil), values...), multiple: true}
}

func (h HighwayTag) IsMultiple() bool { return h.multiple }

func (h HighwayTag) Values() []string { return append([]string(nil), h.values...) }

// Normalize collapses the tag to the single road type the graph carries: the
// first value of a list.
func (h HighwayTag) Normalize() string {
	if len(h.values) == 0 {
		return ""
	}
	return h.values[0]
}

func (h *HighwayTag) UnmarshalJSON(data []byte) error {
	values, multiple, err := decodeStrings(data)
	if err != nil {
		return fmt.Errorf("highway: %w", err)
	}
	h.values, h.multiple = values, multiple
	return nil
}

func (h HighwayTag) MarshalJSON() ([]byte, error) {
	if h.multiple {
		return json.Marshal(h.values)
	}
	return json.Marshal(h.Normalize())
}

// StringList decodes attributes such as street names that are a string or a
// list of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	values, _, err := decodeStrings(data)
	if err != nil {
		return err
	}
	*s = values
	return nil
}

func decodeStrings(data []byte) ([]string, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false, nil
	}

	if data[0] == '[' {
		var raw []interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, false, err
		}
		values := make([]string, 0, len(raw))
		for _, v := range raw {
			values = append(values, convertToString(v))
		}
		return values, true, nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}
	value := convertToString(raw)
	if value == "" {
		return nil, false, nil
	}
	return []string{value}, false, nil
}

func convertToString(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, convertToString(e))
		}
		return strings.Join(parts, ",")
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
