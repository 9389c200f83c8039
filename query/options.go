// Package query translates the special query-string parameters of a resource
// request into find options, parses bracket-notation filters and populate
// strings, and scrubs hidden fields from strings, documents and filters.
package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/drblury/mongoweaver/schema"
)

// Special query parameters. They configure the query and are never part of
// the filter.
const (
	ParamSkip     = "$skip"
	ParamLimit    = "$limit"
	ParamSort     = "$sort"
	ParamSelect   = "$select"
	ParamPopulate = "$populate"
)

// SpecialParams lists every parameter removed from the filter.
var SpecialParams = []string{ParamSkip, ParamLimit, ParamSort, ParamSelect, ParamPopulate}

// Options are the normalized, per-request query options.
type Options struct {
	Skip int64
	// Limit is zero when no limit applies.
	Limit    int64
	Sort     string
	Select   string
	Populate []Populate
	Hidden   []string
}

// Translate reads the special parameters of rawQuery for model m and returns
// the options together with the remaining filter, scrubbed of hidden paths.
func Translate(m *schema.Model, reg *schema.Registry, rawQuery string) (Options, map[string]any, error) {
	filter, err := ParseFilter(rawQuery)
	if err != nil {
		return Options{}, nil, err
	}

	hidden := m.Hidden()
	opts := Options{
		Skip:   ParseSkip(stringParam(filter, ParamSkip)),
		Limit:  ParseLimit(stringParam(filter, ParamLimit)),
		Sort:   OmitString(stringParam(filter, ParamSort), hidden),
		Select: OmitString(stringParam(filter, ParamSelect), hidden),
		Hidden: hidden,
	}
	if opts.Select == "" {
		opts.Select = m.DefaultSelect()
	}
	if populate := OmitString(stringParam(filter, ParamPopulate), hidden); populate != "" {
		opts.Populate = ParsePopulate(m, reg, populate)
	}

	for _, key := range SpecialParams {
		delete(filter, key)
	}
	OmitFilter(filter, hidden)
	return opts, filter, nil
}

// ParseSkip returns the number of documents to skip; invalid or negative
// values mean zero.
func ParseSkip(s string) int64 {
	n, err := parseCount(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ParseLimit returns the page size; invalid or non-positive values mean no limit.
func ParseLimit(s string) int64 {
	n, err := parseCount(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func parseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return int64(f), nil
}

// stringParam reads a special parameter, joining repeated values with spaces.
func stringParam(filter map[string]any, key string) string {
	switch v := filter[key].(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}
