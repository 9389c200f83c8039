package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/drblury/mongoweaver/schema"
)

// Projection builds a MongoDB projection from a select string. Inclusion and
// exclusion cannot be mixed, so when any field is included only inclusions are
// kept (plus an exclusion of _id). An exclusion-only select is extended with
// every hidden path so hidden data is never returned.
func Projection(sel string, hidden []string) bson.D {
	var include, exclude []string
	for _, token := range Tokenize(sel) {
		if name, ok := strings.CutPrefix(token, "-"); ok {
			if name != "" {
				exclude = append(exclude, name)
			}
			continue
		}
		name := strings.TrimPrefix(token, "+")
		if name != "" && !IsHidden(hidden, name) {
			include = append(include, name)
		}
	}

	if len(include) > 0 {
		proj := make(bson.D, 0, len(include)+1)
		for _, name := range dedupe(include) {
			proj = append(proj, bson.E{Key: name, Value: 1})
		}
		if contains(exclude, schema.IDPath) {
			proj = append(proj, bson.E{Key: schema.IDPath, Value: 0})
		}
		return proj
	}

	exclude = dedupe(append(exclude, hidden...))
	if len(exclude) == 0 {
		return nil
	}
	proj := make(bson.D, 0, len(exclude))
	for _, name := range exclude {
		proj = append(proj, bson.E{Key: name, Value: 0})
	}
	return proj
}

// Sort converts "a -b" into a MongoDB sort document applying each field as a
// successive tie-break.
func Sort(s string) bson.D {
	tokens := Tokenize(s)
	if len(tokens) == 0 {
		return nil
	}
	out := make(bson.D, 0, len(tokens))
	for _, token := range tokens {
		dir := 1
		if name, ok := strings.CutPrefix(token, "-"); ok {
			token, dir = name, -1
		} else {
			token = strings.TrimPrefix(token, "+")
		}
		if token == "" {
			continue
		}
		out = append(out, bson.E{Key: token, Value: dir})
	}
	return out
}

// dedupe removes repeated paths and paths nested below another listed path,
// since MongoDB rejects projections with colliding paths.
func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		covered := false
		for _, kept := range out {
			if kept == item || strings.HasPrefix(item, kept+".") {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		filtered := out[:0]
		for _, kept := range out {
			if !strings.HasPrefix(kept, item+".") {
				filtered = append(filtered, kept)
			}
		}
		out = append(filtered, item)
	}
	return out
}
