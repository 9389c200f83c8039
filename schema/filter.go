package schema

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LogicalOperators combine sub-filters and are the only top-level operators a
// filter may carry.
var LogicalOperators = []string{"$or", "$and", "$nor"}

func isLogical(key string) bool {
	for _, op := range LogicalOperators {
		if key == op {
			return true
		}
	}
	return false
}

// CastFilter converts the values of a client filter to the types of the fields
// they address. Top-level operators other than $or, $and and $nor are dropped.
// Paths the model does not define are passed through untouched.
func (m *Model) CastFilter(filter map[string]any) (bson.M, error) {
	out := bson.M{}
	for key, val := range filter {
		if isLogical(key) {
			clauses, ok := AsSlice(val)
			if !ok {
				return nil, &CastError{Path: key, Type: Mixed, Value: val, Err: fmt.Errorf("%s expects a list of filters", key)}
			}
			cast := make(bson.A, 0, len(clauses))
			for _, clause := range clauses {
				sub, ok := AsMap(clause)
				if !ok {
					return nil, &CastError{Path: key, Type: Mixed, Value: clause, Err: fmt.Errorf("%s expects a list of filters", key)}
				}
				cf, err := m.CastFilter(sub)
				if err != nil {
					return nil, err
				}
				cast = append(cast, cf)
			}
			out[key] = cast
			continue
		}
		if strings.HasPrefix(key, "$") {
			continue
		}

		f, ok := m.Field(key)
		if !ok {
			out[key] = val
			continue
		}
		cv, err := castCondition(f, val)
		if err != nil {
			return nil, err
		}
		out[key] = cv
	}
	return out, nil
}

func castCondition(f Field, val any) (any, error) {
	if cond, ok := AsMap(val); ok && hasOperator(cond) {
		out := bson.M{}
		for op, operand := range cond {
			cv, err := castOperator(f, op, operand)
			if err != nil {
				return nil, err
			}
			out[op] = cv
		}
		return out, nil
	}
	if items, ok := AsSlice(val); ok {
		in, err := castEach(f, items)
		if err != nil {
			return nil, err
		}
		return bson.M{"$in": in}, nil
	}
	return castScalar(f, val)
}

func castOperator(f Field, op string, operand any) (any, error) {
	switch op {
	case "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		return castScalar(f, operand)
	case "$in", "$nin", "$all":
		items, ok := AsSlice(operand)
		if !ok {
			items = []any{operand}
		}
		return castEach(f, items)
	case "$exists":
		return castScalar(Field{Path: f.Path, Type: Boolean}, operand)
	case "$size":
		return castScalar(Field{Path: f.Path, Type: Number}, operand)
	case "$regex", "$options":
		return fmt.Sprint(operand), nil
	case "$not":
		if cond, ok := AsMap(operand); ok {
			return castCondition(f, cond)
		}
		return fmt.Sprint(operand), nil
	case "$elemMatch":
		return operand, nil
	}
	return nil, &CastError{Path: f.Path, Type: f.Type, Value: op, Err: fmt.Errorf("unsupported operator %s", op)}
}

func castEach(f Field, items []any) (primitive.A, error) {
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

func hasOperator(cond map[string]any) bool {
	if len(cond) == 0 {
		return false
	}
	for key := range cond {
		if !strings.HasPrefix(key, "$") {
			return false
		}
	}
	return true
}
