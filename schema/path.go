package schema

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AsMap unwraps the map shapes documents take after JSON or BSON decoding.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case bson.M:
		return m, true
	case bson.D:
		return m.Map(), true
	}
	return nil, false
}

// AsSlice unwraps the list shapes documents take after JSON or BSON decoding.
func AsSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case primitive.A:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []bson.M:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}
	return nil, false
}

// GetPath reads a dotted path from a document. Flat keys containing the full
// dotted path are honoured before nested traversal.
func GetPath(doc map[string]any, path string) (any, bool) {
	if doc == nil {
		return nil, false
	}
	if v, ok := doc[path]; ok {
		return v, true
	}

	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return nil, false
	}
	child, ok := AsMap(doc[head])
	if !ok {
		return nil, false
	}
	return GetPath(child, rest)
}

// SetPath writes value at a dotted path, creating intermediate maps.
func SetPath(doc map[string]any, path string, value any) {
	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		doc[head] = value
		return
	}
	child, ok := AsMap(doc[head])
	if !ok {
		child = make(map[string]any)
		doc[head] = child
	}
	SetPath(child, rest, value)
}

// DeletePath removes a dotted path from a document and from every document in
// nested arrays along the way.
func DeletePath(doc map[string]any, path string) {
	if doc == nil {
		return
	}
	delete(doc, path)

	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return
	}
	if child, ok := AsMap(doc[head]); ok {
		DeletePath(child, rest)
		return
	}
	if items, ok := AsSlice(doc[head]); ok {
		for _, item := range items {
			if m, ok := AsMap(item); ok {
				DeletePath(m, rest)
			}
		}
	}
}

// Clone deep-copies the maps and lists of a document so the copy can be
// scrubbed without touching the original.
func Clone(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(bson.M, len(t))
		for k, item := range t {
			out[k] = Clone(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Clone(item)
		}
		return out
	case primitive.A:
		out := make(primitive.A, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	case []bson.M:
		out := make([]bson.M, len(t))
		for i, item := range t {
			out[i] = Clone(item).(bson.M)
		}
		return out
	}
	return v
}
