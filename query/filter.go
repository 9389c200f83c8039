package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedFilter reports a query string that cannot be turned into a filter.
var ErrMalformedFilter = errors.New("query: malformed filter")

const (
	maxFilterDepth = 5
	maxArrayIndex  = 20
)

// ParseFilter decodes a raw query string into a nested filter using bracket
// notation: "age[$gt]=3" becomes {"age": {"$gt": "3"}} and "$or[0][name]=a"
// becomes {"$or": [{"name": "a"}]}. A key repeated with plain values yields a
// list, which casting turns into an $in condition. Values stay strings until
// they are cast against a model.
func ParseFilter(rawQuery string) (map[string]any, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFilter, err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	root := map[string]any{}
	for _, key := range keys {
		segments := splitKey(key)
		if len(segments) == 0 {
			continue
		}
		vals := values[key]
		var value any = vals[len(vals)-1]
		if len(vals) > 1 {
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			value = list
		}
		if err := assign(root, segments, value); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedFilter, key, err)
		}
	}
	for key, child := range root {
		root[key] = compactArrays(child)
	}
	return root, nil
}

// splitKey turns "a[b][c]" into ["a", "b", "c"]. Segments past the depth limit
// are kept together as one literal key.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		if key == "" {
			return nil
		}
		return []string{key}
	}

	segments := []string{key[:open]}
	rest := key[open:]
	for len(rest) > 0 && rest[0] == '[' {
		if len(segments) > maxFilterDepth {
			segments = append(segments, rest)
			return segments
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			segments[len(segments)-1] += rest
			return segments
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	if rest != "" {
		segments[len(segments)-1] += rest
	}
	return segments
}

func assign(node map[string]any, segments []string, value any) error {
	head := segments[0]
	if len(segments) == 1 {
		if existing, ok := node[head]; ok {
			node[head] = appendValue(existing, value)
			return nil
		}
		node[head] = value
		return nil
	}

	next := segments[1]
	if next == "" {
		// "tags[]=a&tags[]=b" appends to a list.
		node[head] = appendValue(node[head], value)
		return nil
	}

	child, exists := node[head]
	if !exists {
		m := map[string]any{}
		node[head] = m
		return assign(m, segments[1:], value)
	}
	m, ok := child.(map[string]any)
	if !ok {
		return fmt.Errorf("%q is both a value and an object", head)
	}
	return assign(m, segments[1:], value)
}

func appendValue(existing, value any) any {
	var list []any
	switch e := existing.(type) {
	case nil:
	case []any:
		list = e
	default:
		list = []any{e}
	}
	if vs, ok := value.([]any); ok {
		return append(list, vs...)
	}
	return append(list, value)
}

// compactArrays converts maps whose keys are all small indices into lists,
// ordered by index.
func compactArrays(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		if list, ok := v.([]any); ok {
			for i := range list {
				list[i] = compactArrays(list[i])
			}
		}
		return v
	}

	for key, child := range m {
		m[key] = compactArrays(child)
	}
	if len(m) == 0 {
		return m
	}

	indices := make([]int, 0, len(m))
	for key := range m {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx > maxArrayIndex {
			return m
		}
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	list := make([]any, 0, len(indices))
	for _, idx := range indices {
		list = append(list, m[strconv.Itoa(idx)])
	}
	return list
}
