package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/drblury/mongoweaver/schema"
)

// ErrDuplicateKey is returned by Memory when an _id is inserted twice.
var ErrDuplicateKey = errors.New("store: duplicate key")

// Memory keeps collections in process memory. It understands the subset of
// the MongoDB query language the resource layer produces: field equality,
// comparison and set operators, $exists, $regex, $not, $size, $elemMatch and
// the $or, $and and $nor combinators.
type Memory struct {
	mu    sync.Mutex
	colls map[string]*MemoryCollection
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{colls: make(map[string]*MemoryCollection)}
}

// Collection implements Store. Collections are created on first use.
func (m *Memory) Collection(name string) Collection {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.colls[name]
	if !ok {
		c = &MemoryCollection{name: name}
		m.colls[name] = c
	}
	return c
}

// Names lists the collections created so far.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.colls))
	for name := range m.colls {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MemoryCollection holds documents in insertion order.
type MemoryCollection struct {
	name string
	mu   sync.RWMutex
	docs []bson.M
}

func (c *MemoryCollection) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]bson.M, 0)
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return nil, fmt.Errorf("store: find in %s: %w", c.name, err)
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	if len(opts.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return lessBy(matched[i], matched[j], opts.Sort)
		})
	}
	if opts.Skip > 0 {
		if opts.Skip >= int64(len(matched)) {
			matched = matched[:0]
		} else {
			matched = matched[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < int64(len(matched)) {
		matched = matched[:opts.Limit]
	}

	out := make([]bson.M, len(matched))
	for i, doc := range matched {
		out[i] = project(doc, opts.Projection)
	}
	return out, nil
}

func (c *MemoryCollection) Count(ctx context.Context, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int64
	for _, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return 0, fmt.Errorf("store: count in %s: %w", c.name, err)
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (c *MemoryCollection) FindOne(ctx context.Context, filter bson.M, projection bson.D) (bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, err := c.first(filter)
	if err != nil || idx < 0 {
		return nil, err
	}
	return project(c.docs[idx], projection), nil
}

func (c *MemoryCollection) Insert(ctx context.Context, doc bson.M) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := doc[schema.IDPath]; ok {
		for _, existing := range c.docs {
			if valuesEqual(existing[schema.IDPath], id) {
				return fmt.Errorf("%w: %s %v", ErrDuplicateKey, c.name, id)
			}
		}
	}
	c.docs = append(c.docs, copyValue(doc).(bson.M))
	return nil
}

func (c *MemoryCollection) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M, projection bson.D) (bson.M, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.first(filter)
	if err != nil || idx < 0 {
		return nil, err
	}
	if err := applyUpdate(c.docs[idx], update); err != nil {
		return nil, fmt.Errorf("store: update in %s: %w", c.name, err)
	}
	return project(c.docs[idx], projection), nil
}

func (c *MemoryCollection) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.first(filter)
	if err != nil || idx < 0 {
		return 0, err
	}
	if err := applyUpdate(c.docs[idx], update); err != nil {
		return 0, fmt.Errorf("store: update in %s: %w", c.name, err)
	}
	return 1, nil
}

func (c *MemoryCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.first(filter)
	if err != nil || idx < 0 {
		return 0, err
	}
	c.docs = append(c.docs[:idx], c.docs[idx+1:]...)
	return 1, nil
}

func (c *MemoryCollection) first(filter bson.M) (int, error) {
	for i, doc := range c.docs {
		ok, err := matches(doc, filter)
		if err != nil {
			return -1, err
		}
		if ok {
			return i, nil
		}
	}
	return -1, nil
}

func matches(doc map[string]any, filter map[string]any) (bool, error) {
	for key, cond := range filter {
		var (
			ok  bool
			err error
		)
		switch key {
		case "$or", "$and", "$nor":
			ok, err = matchLogical(doc, key, cond)
		default:
			if strings.HasPrefix(key, "$") {
				return false, fmt.Errorf("unsupported top-level operator %s", key)
			}
			v, present := schema.GetPath(doc, key)
			ok, err = matchCondition(v, present, cond)
		}
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchLogical(doc map[string]any, op string, cond any) (bool, error) {
	clauses, ok := schema.AsSlice(cond)
	if !ok {
		return false, fmt.Errorf("%s expects a list", op)
	}
	for _, clause := range clauses {
		sub, ok := schema.AsMap(clause)
		if !ok {
			return false, fmt.Errorf("%s expects a list of documents", op)
		}
		hit, err := matches(doc, sub)
		if err != nil {
			return false, err
		}
		switch {
		case op == "$or" && hit:
			return true, nil
		case op == "$and" && !hit:
			return false, nil
		case op == "$nor" && hit:
			return false, nil
		}
	}
	return op != "$or", nil
}

func matchCondition(v any, present bool, cond any) (bool, error) {
	ops, ok := schema.AsMap(cond)
	if !ok || !isOperatorDoc(ops) {
		return matchEquals(v, cond), nil
	}
	for op, operand := range ops {
		ok, err := matchOperator(v, present, op, operand, ops)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchOperator(v any, present bool, op string, operand any, all map[string]any) (bool, error) {
	switch op {
	case "$eq":
		return matchEquals(v, operand), nil
	case "$ne":
		return !matchEquals(v, operand), nil
	case "$gt", "$gte", "$lt", "$lte":
		return anyElement(v, func(item any) bool {
			cmp, ok := compareValues(item, operand)
			if !ok {
				return false
			}
			switch op {
			case "$gt":
				return cmp > 0
			case "$gte":
				return cmp >= 0
			case "$lt":
				return cmp < 0
			}
			return cmp <= 0
		}), nil
	case "$in", "$nin":
		items, ok := schema.AsSlice(operand)
		if !ok {
			return false, fmt.Errorf("%s expects a list", op)
		}
		hit := false
		for _, item := range items {
			if matchEquals(v, item) {
				hit = true
				break
			}
		}
		return hit == (op == "$in"), nil
	case "$all":
		items, ok := schema.AsSlice(operand)
		if !ok {
			return false, fmt.Errorf("$all expects a list")
		}
		for _, item := range items {
			if !matchEquals(v, item) {
				return false, nil
			}
		}
		return true, nil
	case "$exists":
		want, _ := operand.(bool)
		return present == want, nil
	case "$size":
		items, ok := schema.AsSlice(v)
		if !ok {
			return false, nil
		}
		n, ok := toFloat(operand)
		return ok && float64(len(items)) == n, nil
	case "$regex":
		flags, _ := all["$options"].(string)
		pattern := fmt.Sprint(operand)
		if flags != "" {
			pattern = "(?" + strings.ReplaceAll(flags, "x", "") + ")" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Errorf("invalid $regex: %w", err)
		}
		return anyElement(v, func(item any) bool {
			s, ok := item.(string)
			return ok && re.MatchString(s)
		}), nil
	case "$options":
		return true, nil
	case "$not":
		ok, err := matchCondition(v, present, operand)
		return !ok, err
	case "$elemMatch":
		sub, ok := schema.AsMap(operand)
		if !ok {
			return false, fmt.Errorf("$elemMatch expects a document")
		}
		items, ok := schema.AsSlice(v)
		if !ok {
			return false, nil
		}
		for _, item := range items {
			if doc, ok := schema.AsMap(item); ok {
				if hit, err := matches(doc, sub); err != nil || hit {
					return hit, err
				}
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported operator %s", op)
}

func isOperatorDoc(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for key := range m {
		if !strings.HasPrefix(key, "$") {
			return false
		}
	}
	return true
}

// matchEquals treats arrays like MongoDB does: a list matches when it equals
// the operand or when any of its elements does.
func matchEquals(v, operand any) bool {
	if valuesEqual(v, operand) {
		return true
	}
	if items, ok := schema.AsSlice(v); ok {
		for _, item := range items {
			if valuesEqual(item, operand) {
				return true
			}
		}
	}
	return false
}

func anyElement(v any, fn func(any) bool) bool {
	if items, ok := schema.AsSlice(v); ok {
		for _, item := range items {
			if fn(item) {
				return true
			}
		}
		return false
	}
	return fn(v)
}

func valuesEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ma, ok := schema.AsMap(a); ok {
		mb, ok := schema.AsMap(b)
		if !ok || len(ma) != len(mb) {
			return false
		}
		for key, va := range ma {
			vb, ok := mb[key]
			if !ok || !valuesEqual(va, vb) {
				return false
			}
		}
		return true
	}
	if la, ok := schema.AsSlice(a); ok {
		lb, ok := schema.AsSlice(b)
		if !ok || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !valuesEqual(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// compareValues orders two scalars of the same kind. Values of different
// kinds are not comparable.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch ta := a.(type) {
	case string:
		tb, ok := b.(string)
		return strings.Compare(ta, tb), ok
	case bool:
		tb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case ta == tb:
			return 0, true
		case tb:
			return -1, true
		}
		return 1, true
	case primitive.ObjectID:
		tb, ok := b.(primitive.ObjectID)
		return bytes.Compare(ta[:], tb[:]), ok
	case primitive.DateTime:
		tb, ok := b.(primitive.DateTime)
		if !ok {
			return 0, false
		}
		switch {
		case ta < tb:
			return -1, true
		case ta > tb:
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// lessBy orders documents by a sort spec. Missing values sort first.
func lessBy(a, b bson.M, spec bson.D) bool {
	for _, e := range spec {
		dir := 1
		if n, ok := toFloat(e.Value); ok && n < 0 {
			dir = -1
		}
		va, okA := schema.GetPath(a, e.Key)
		vb, okB := schema.GetPath(b, e.Key)
		okA = okA && va != nil
		okB = okB && vb != nil

		var cmp int
		switch {
		case !okA && !okB:
			cmp = 0
		case !okA:
			cmp = -1
		case !okB:
			cmp = 1
		default:
			c, comparable := compareValues(va, vb)
			if !comparable {
				c = strings.Compare(fmt.Sprint(va), fmt.Sprint(vb))
			}
			cmp = c
		}
		if cmp != 0 {
			return cmp*dir < 0
		}
	}
	return false
}

// project copies doc through a projection. Any positive value makes it an
// inclusion projection, where _id is kept unless excluded explicitly.
func project(doc bson.M, projection bson.D) bson.M {
	inclusive := false
	for _, e := range projection {
		if n, ok := toFloat(e.Value); ok && n > 0 {
			inclusive = true
			break
		}
	}

	if !inclusive {
		out := copyValue(doc).(bson.M)
		for _, e := range projection {
			schema.DeletePath(out, e.Key)
		}
		return out
	}

	out := bson.M{}
	if id, ok := doc[schema.IDPath]; ok {
		out[schema.IDPath] = copyValue(id)
	}
	for _, e := range projection {
		n, _ := toFloat(e.Value)
		if n > 0 {
			if v, ok := schema.GetPath(doc, e.Key); ok {
				schema.SetPath(out, e.Key, copyValue(v))
			}
			continue
		}
		schema.DeletePath(out, e.Key)
	}
	return out
}

func applyUpdate(doc bson.M, update bson.M) error {
	if !isOperatorDoc(update) {
		id := doc[schema.IDPath]
		for key := range doc {
			delete(doc, key)
		}
		for key, v := range update {
			doc[key] = copyValue(v)
		}
		doc[schema.IDPath] = id
		return nil
	}

	for op, arg := range update {
		fields, ok := schema.AsMap(arg)
		if !ok {
			return fmt.Errorf("%s expects a document", op)
		}
		for path, v := range fields {
			switch op {
			case "$set":
				schema.SetPath(doc, path, copyValue(v))
			case "$unset":
				schema.DeletePath(doc, path)
			case "$inc":
				by, ok := toFloat(v)
				if !ok {
					return fmt.Errorf("$inc expects a number for %s", path)
				}
				cur, _ := schema.GetPath(doc, path)
				n, _ := toFloat(cur)
				schema.SetPath(doc, path, n+by)
			default:
				return fmt.Errorf("unsupported update operator %s", op)
			}
		}
	}
	return nil
}

func copyValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(bson.M, len(t))
		for key, item := range t {
			out[key] = copyValue(item)
		}
		return out
	case map[string]any:
		out := make(bson.M, len(t))
		for key, item := range t {
			out[key] = copyValue(item)
		}
		return out
	case primitive.A:
		out := make(primitive.A, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case []any:
		out := make(primitive.A, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	}
	return v
}
