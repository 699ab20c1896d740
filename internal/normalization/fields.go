package normalization

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Field helpers for externally produced JSON objects. Wrong-typed or missing
// fields fall back to empty values; structural rejection happens only at the
// top level of a record.

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case fmt.Stringer:
		return strings.TrimSpace(typed.String())
	default:
		return ""
	}
}

func stringListField(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return []string{}
	}
	switch typed := v.(type) {
	case []string:
		out := make([]string, 0, len(typed))
		for _, s := range typed {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

func boolField(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	switch typed := v.(type) {
	case bool:
		return typed
	case string:
		switch Fold(typed) {
		case "true", "yes", "1":
			return true
		}
		return false
	default:
		return false
	}
}

func uuidField(m map[string]any, key string) uuid.UUID {
	raw := stringField(m, key)
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// itemID returns the stable id of a list item, assigning a fresh one when the
// producer omitted it. Assignment happens here, at creation time, so the id
// never changes across later normalization passes of the same stored item.
func itemID(m map[string]any) uuid.UUID {
	if id := uuidField(m, "id"); id != uuid.Nil {
		return id
	}
	return uuid.New()
}

func objectField(m map[string]any, key string) map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return obj
}

func objectListField(m map[string]any, key string) ([]map[string]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return []map[string]any{}, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, recordErr(RecordErrorNotAList, key)
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, recordErr(RecordErrorBadElement, key)
		}
		out = append(out, obj)
	}
	return out, nil
}
