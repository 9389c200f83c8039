package query

import (
	"regexp"
	"strings"

	"github.com/drblury/mongoweaver/schema"
)

var fieldToken = regexp.MustCompile(`[-+]?([^, ]+)`)

// Tokenize splits a field list on spaces and commas. Separators inside square
// brackets are kept so populate tokens like "author[name email]" stay whole.
func Tokenize(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
		depth  int
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case (r == ' ' || r == ',') && depth == 0:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return tokens
}

// OmitString drops every token of a sort, select or populate string whose bare
// name is hidden or lies below a hidden path. A leading "-" or "+" is ignored
// when matching, as is any populate suffix starting with "[" or ":". Surviving
// tokens are joined with spaces.
func OmitString(s string, hidden []string) string {
	if s == "" {
		return ""
	}
	kept := make([]string, 0)
	for _, token := range Tokenize(s) {
		m := fieldToken.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		if IsHidden(hidden, bareName(m[1])) {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

func bareName(token string) string {
	if i := strings.IndexAny(token, "[:"); i >= 0 {
		return token[:i]
	}
	return token
}

// IsHidden reports whether path is one of hidden or nested below one of them.
func IsHidden(hidden []string, path string) bool {
	for _, h := range hidden {
		if path == h || strings.HasPrefix(path, h+".") {
			return true
		}
	}
	return false
}

// OmitDocument removes every hidden path from a document, or from each document
// of a list, descending into nested maps and arrays.
func OmitDocument(v any, hidden []string) {
	if len(hidden) == 0 || v == nil {
		return
	}
	if items, ok := schema.AsSlice(v); ok {
		for _, item := range items {
			OmitDocument(item, hidden)
		}
		return
	}
	doc, ok := schema.AsMap(v)
	if !ok {
		return
	}
	for _, path := range hidden {
		schema.DeletePath(doc, path)
	}
	for key := range doc {
		if strings.Contains(key, ".") && IsHidden(hidden, key) {
			delete(doc, key)
		}
	}
}

// OmitFilter removes hidden paths from a query filter, including dotted keys
// below a hidden path, every clause of $or, $and and $nor, and $elemMatch
// sub-filters.
func OmitFilter(filter map[string]any, hidden []string) {
	if filter == nil {
		return
	}
	for _, op := range schema.LogicalOperators {
		clauses, ok := schema.AsSlice(filter[op])
		if !ok {
			continue
		}
		for _, clause := range clauses {
			if sub, ok := schema.AsMap(clause); ok {
				OmitFilter(sub, hidden)
			}
		}
	}
	OmitDocument(filter, hidden)

	for key, cond := range filter {
		ops, ok := schema.AsMap(cond)
		if !ok {
			continue
		}
		if sub, ok := schema.AsMap(ops["$elemMatch"]); ok {
			OmitFilter(sub, below(hidden, key))
		}
	}
}

// below returns the hidden paths nested under prefix, relative to it.
func below(hidden []string, prefix string) []string {
	var out []string
	for _, h := range hidden {
		if rest, ok := strings.CutPrefix(h, prefix+"."); ok {
			out = append(out, rest)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
