package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type names the storage type of a field.
type Type int

const (
	// Mixed stores values as supplied, without casting.
	Mixed Type = iota
	String
	Number
	Boolean
	ObjectID
	Date
)

var typeNames = map[Type]string{
	Mixed:    "Mixed",
	String:   "String",
	Number:   "Number",
	Boolean:  "Boolean",
	ObjectID: "ObjectId",
	Date:     "Date",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType resolves a case-insensitive type name such as "string" or "objectid".
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mixed", "any":
		return Mixed, nil
	case "string":
		return String, nil
	case "number", "float", "int":
		return Number, nil
	case "boolean", "bool":
		return Boolean, nil
	case "objectid", "oid", "ref":
		return ObjectID, nil
	case "date", "datetime", "time":
		return Date, nil
	}
	return Mixed, fmt.Errorf("schema: unknown field type %q", name)
}

// UnmarshalYAML decodes a type from its name.
func (t *Type) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	parsed, err := ParseType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Visibility controls whether a field is exposed to clients. Auto defers to the
// underscore naming convention.
type Visibility int

const (
	Auto Visibility = iota
	Hide
	Show
)

// UnmarshalYAML maps `hidden: true` to Hide and `hidden: false` to Show.
func (v *Visibility) UnmarshalYAML(value *yaml.Node) error {
	var hidden bool
	if err := value.Decode(&hidden); err != nil {
		return fmt.Errorf("schema: hidden must be a boolean: %w", err)
	}
	if hidden {
		*v = Hide
	} else {
		*v = Show
	}
	return nil
}

// Field describes one path of a model.
type Field struct {
	// Path is the dotted location of the value inside a document.
	Path string `yaml:"path"`
	Type Type   `yaml:"type"`
	// Array marks the field as a list of Type values.
	Array bool `yaml:"array"`
	// Ref names the model an ObjectId field points at. Only Ref fields can be populated.
	Ref      string `yaml:"ref"`
	Required bool   `yaml:"required"`
	Default  any    `yaml:"default"`
	// Validate holds go-playground/validator tags applied to non-nil values.
	Validate string     `yaml:"validate"`
	Hidden   Visibility `yaml:"hidden"`
}

// IsRef reports whether the field references another model.
func (f Field) IsRef() bool {
	return f.Ref != "" && f.Type == ObjectID
}

func (f Field) validateDefinition() error {
	if strings.TrimSpace(f.Path) == "" {
		return fmt.Errorf("schema: field path is required")
	}
	for _, segment := range strings.Split(f.Path, ".") {
		if segment == "" {
			return fmt.Errorf("schema: field %q has an empty path segment", f.Path)
		}
		if strings.HasPrefix(segment, "$") {
			return fmt.Errorf("schema: field %q cannot start a segment with $", f.Path)
		}
	}
	if f.Ref != "" && f.Type != ObjectID {
		return fmt.Errorf("schema: field %q references %q but is not an ObjectId", f.Path, f.Ref)
	}
	return nil
}

func isConventionallyHidden(path string) bool {
	return strings.HasPrefix(path, "_") || strings.Contains(path, "._")
}
