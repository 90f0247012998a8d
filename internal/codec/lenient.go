package codec

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// The helpers in this file never fail: a missing or wrongly-typed value
// yields the zero value of the requested shape.

type member struct {
	Key   string
	Value json.RawMessage
}

// orderedObject decodes a JSON object into its members in document order.
// A repeated key keeps its first position and its last value.
func orderedObject(raw json.RawMessage) ([]member, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}

	var out []member
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		if i, seen := index[key]; seen {
			out[i].Value = v
			continue
		}
		index[key] = len(out)
		out = append(out, member{Key: key, Value: v})
	}
	return out, true
}

func asObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func asString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func asInt64(raw json.RawMessage) int64 {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}
	switch x := v.(type) {
	case float64:
		return int64(x)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

func asInt(raw json.RawMessage) int {
	return int(asInt64(raw))
}

func asBool(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	}
	return false
}

// asStrings returns the string elements of a JSON array, skipping
// non-string elements. Anything else yields an empty, non-nil slice.
func asStrings(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, it := range items {
		var s string
		if err := json.Unmarshal(it, &s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// unwrapEncoded returns the inner document when raw is a JSON string that
// itself holds JSON; otherwise raw is returned as-is.
func unwrapEncoded(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return trimmed
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil
	}
	return json.RawMessage(s)
}
