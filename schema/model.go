// Package schema describes document models: their fields, which of them are
// hidden from clients, how raw values are cast to field types and how
// documents are validated before they are written.
package schema

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// IDPath is the identity field of every model.
	IDPath = "_id"
	// DefaultVersionKey is added to models unless WithoutVersionKey is used.
	DefaultVersionKey = "__v"
)

// Option configures a Model during construction.
type Option func(*Model)

// WithCollection overrides the collection derived from the model name.
func WithCollection(name string) Option {
	return func(m *Model) {
		if name = strings.TrimSpace(name); name != "" {
			m.collection = name
		}
	}
}

// WithVersionKey renames the version key field.
func WithVersionKey(path string) Option {
	return func(m *Model) {
		m.versionKey = path
	}
}

// WithoutVersionKey stops the model from tracking a version key.
func WithoutVersionKey() Option {
	return func(m *Model) {
		m.versionKey = ""
	}
}

// Model is an immutable document definition. Hidden paths and the default
// select string are computed on first use and cached for the life of the model.
type Model struct {
	name       string
	collection string
	versionKey string
	fields     []Field
	byPath     map[string]int

	hiddenOnce    sync.Once
	hidden        []string
	defaultSelect string
}

// New builds a model from the supplied fields. An ObjectId `_id` field and the
// version key are added when the caller does not define them.
func New(name string, fields []Field, opts ...Option) (*Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("schema: model name is required")
	}

	m := &Model{
		name:       name,
		collection: strings.ToLower(name) + "s",
		versionKey: DefaultVersionKey,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	all := make([]Field, 0, len(fields)+2)
	if !definesPath(fields, IDPath) {
		all = append(all, Field{Path: IDPath, Type: ObjectID})
	}
	all = append(all, fields...)
	if m.versionKey != "" && !definesPath(fields, m.versionKey) {
		all = append(all, Field{Path: m.versionKey, Type: Number, Default: float64(0)})
	}

	m.fields = all
	m.byPath = make(map[string]int, len(all))
	for i, f := range all {
		if err := f.validateDefinition(); err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
		if _, dup := m.byPath[f.Path]; dup {
			return nil, fmt.Errorf("model %s: duplicate field %q", name, f.Path)
		}
		m.byPath[f.Path] = i
	}
	return m, nil
}

// MustNew is like New but panics on invalid definitions.
func MustNew(name string, fields []Field, opts ...Option) *Model {
	m, err := New(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func definesPath(fields []Field, path string) bool {
	for _, f := range fields {
		if f.Path == path {
			return true
		}
	}
	return false
}

// Name returns the model name used for registry lookups and refs.
func (m *Model) Name() string { return m.name }

// Collection returns the backing collection name.
func (m *Model) Collection() string { return m.collection }

// VersionKey returns the version key path, or "" when disabled.
func (m *Model) VersionKey() string { return m.versionKey }

// Fields returns a copy of the field definitions in declaration order.
func (m *Model) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Field looks up a field by its exact path.
func (m *Model) Field(path string) (Field, bool) {
	idx, ok := m.byPath[path]
	if !ok {
		return Field{}, false
	}
	return m.fields[idx], true
}

// Hidden returns the paths that must never be read or written by clients:
// fields marked Hide, plus any path with a segment starting with an underscore
// (other than _id) that is not explicitly marked Show.
func (m *Model) Hidden() []string {
	m.resolveVisibility()
	return m.hidden
}

// IsHidden reports whether path is in the hidden set.
func (m *Model) IsHidden(path string) bool {
	for _, h := range m.Hidden() {
		if h == path {
			return true
		}
	}
	return false
}

// DefaultSelect excludes every hidden path, e.g. "-secret -__v".
func (m *Model) DefaultSelect() string {
	m.resolveVisibility()
	return m.defaultSelect
}

func (m *Model) resolveVisibility() {
	m.hiddenOnce.Do(func() {
		hidden := make([]string, 0)
		for _, f := range m.fields {
			if f.Path == IDPath || f.Hidden == Show {
				continue
			}
			if f.Hidden == Hide || isConventionallyHidden(f.Path) {
				hidden = append(hidden, f.Path)
			}
		}

		excluded := make([]string, len(hidden))
		for i, path := range hidden {
			excluded[i] = "-" + path
		}

		m.hidden = hidden
		m.defaultSelect = strings.Join(excluded, " ")
	})
}

func (m *Model) String() string {
	return m.name
}
