package query

import (
	"strings"

	"github.com/drblury/mongoweaver/schema"
)

// Populate describes one reference hop: the ref path on the parent model, the
// referenced model, the projection applied to the referenced documents and any
// further hops below them.
type Populate struct {
	Path     string
	Model    *schema.Model
	Select   string
	Populate []Populate
	// Lean asks for plain documents rather than *document.Document values.
	Lean bool
}

// ParsePopulate turns a scrubbed populate string such as
// "author[name],comments:author" into descriptors. Tokens naming a path that
// is not a Ref field, or whose referenced model is not registered, are dropped.
func ParsePopulate(m *schema.Model, reg *schema.Registry, s string) []Populate {
	if m == nil || reg == nil || strings.TrimSpace(s) == "" {
		return nil
	}

	var out []Populate
	for _, token := range Tokenize(s) {
		head, nested, _ := strings.Cut(token, ":")
		path, sel := splitSelect(head)

		f, ok := m.Field(path)
		if !ok || !f.IsRef() {
			continue
		}
		ref, err := reg.Lookup(f.Ref)
		if err != nil {
			continue
		}

		hidden := ref.Hidden()
		sel = OmitString(sel, hidden)
		if sel == "" {
			sel = ref.DefaultSelect()
		}
		out = append(out, Populate{
			Path:     f.Path,
			Model:    ref,
			Select:   sel,
			Populate: ParsePopulate(ref, reg, OmitString(nested, hidden)),
			Lean:     true,
		})
	}
	return out
}

// splitSelect extracts a bracketed select list from a populate head, so
// "author[name email]" yields ("author", "name email").
func splitSelect(head string) (string, string) {
	open := strings.IndexByte(head, '[')
	if open < 0 {
		return head, ""
	}
	end := strings.IndexByte(head[open:], ']')
	if end < 0 {
		return head[:open], head[open+1:]
	}
	return head[:open] + head[open+end+1:], head[open+1 : open+end]
}
