package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CastError reports a value that cannot be converted to its field type.
type CastError struct {
	Path  string
	Type  Type
	Value any
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Cast to %s failed for value %q at path %q", e.Type, fmt.Sprint(e.Value), e.Path)
}

func (e *CastError) Unwrap() error { return e.Err }

// CastValue converts v to the type of the field at path. Unknown paths are
// returned unchanged.
func (m *Model) CastValue(path string, v any) (any, error) {
	f, ok := m.Field(path)
	if !ok {
		return v, nil
	}
	return castField(f, v)
}

// CastID converts an identifier taken from a URL to the type of _id.
func (m *Model) CastID(v any) (any, error) {
	return m.CastValue(IDPath, v)
}

// Cast builds a document holding only the model's fields from input, with every
// value converted to its field type. Failed conversions are reported together
// as a *ValidationError.
func (m *Model) Cast(input map[string]any) (bson.M, error) {
	out := bson.M{}
	verr := &ValidationError{Model: m.name}
	for _, f := range m.fields {
		raw, ok := GetPath(input, f.Path)
		if !ok {
			continue
		}
		v, err := castField(f, raw)
		if err != nil {
			verr.add(FieldError{Path: f.Path, Kind: "cast", Message: err.Error(), Value: raw})
			continue
		}
		SetPath(out, f.Path, v)
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return out, nil
}

// ApplyDefaults fills absent paths that declare a default. A missing ObjectId
// _id receives a fresh identifier.
func (m *Model) ApplyDefaults(doc bson.M) {
	for _, f := range m.fields {
		if _, ok := GetPath(doc, f.Path); ok {
			continue
		}
		if f.Path == IDPath && f.Type == ObjectID {
			doc[IDPath] = primitive.NewObjectID()
			continue
		}
		if f.Default == nil {
			continue
		}
		if v, err := castField(f, f.Default); err == nil {
			SetPath(doc, f.Path, v)
		}
	}
}

// Flatten maps every field present in doc to its dotted path.
func (m *Model) Flatten(doc map[string]any) bson.M {
	out := bson.M{}
	for _, f := range m.fields {
		if v, ok := GetPath(doc, f.Path); ok {
			out[f.Path] = v
		}
	}
	return out
}

func castField(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if !f.Array {
		return castScalar(f, v)
	}

	items, ok := AsSlice(v)
	if !ok {
		items = []any{v}
	}
	out := make(primitive.A, 0, len(items))
	for _, item := range items {
		cv, err := castScalar(f, item)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, nil
}

func castScalar(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	fail := func(err error) (any, error) {
		return nil, &CastError{Path: f.Path, Type: f.Type, Value: v, Err: err}
	}

	switch f.Type {
	case Mixed:
		return v, nil
	case String:
		switch t := v.(type) {
		case string:
			return t, nil
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), nil
		case int, int32, int64, bool:
			return fmt.Sprint(t), nil
		case primitive.ObjectID:
			return t.Hex(), nil
		}
		return fail(fmt.Errorf("unsupported %T", v))
	case Number:
		switch t := v.(type) {
		case float64:
			return t, nil
		case float32:
			return float64(t), nil
		case int:
			return float64(t), nil
		case int32:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case bool:
			if t {
				return float64(1), nil
			}
			return float64(0), nil
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				return nil, nil
			}
			n, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(n) {
				return fail(err)
			}
			return n, nil
		}
		return fail(fmt.Errorf("unsupported %T", v))
	case Boolean:
		switch t := v.(type) {
		case bool:
			return t, nil
		case float64:
			if t == 1 || t == 0 {
				return t == 1, nil
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(t)) {
			case "true", "1", "yes":
				return true, nil
			case "false", "0", "no":
				return false, nil
			}
		}
		return fail(fmt.Errorf("not a boolean"))
	case ObjectID:
		switch t := v.(type) {
		case primitive.ObjectID:
			return t, nil
		case string:
			id, err := primitive.ObjectIDFromHex(strings.TrimSpace(t))
			if err != nil {
				return fail(err)
			}
			return id, nil
		}
		if doc, ok := AsMap(v); ok {
			if id, ok := doc[IDPath]; ok {
				return castScalar(f, id)
			}
		}
		return fail(fmt.Errorf("unsupported %T", v))
	case Date:
		switch t := v.(type) {
		case primitive.DateTime:
			return t, nil
		case time.Time:
			return primitive.NewDateTimeFromTime(t), nil
		case float64:
			return primitive.DateTime(int64(t)), nil
		case int64:
			return primitive.DateTime(t), nil
		case string:
			s := strings.TrimSpace(t)
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return primitive.NewDateTimeFromTime(ts), nil
			}
			if ts, err := time.Parse(time.DateOnly, s); err == nil {
				return primitive.NewDateTimeFromTime(ts), nil
			}
			ms, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fail(err)
			}
			return primitive.DateTime(ms), nil
		}
		return fail(fmt.Errorf("unsupported %T", v))
	}
	return v, nil
}
