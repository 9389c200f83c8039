package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/drblury/mongoweaver/document"
	"github.com/drblury/mongoweaver/jsonutil"
	"github.com/drblury/mongoweaver/query"
	"github.com/drblury/mongoweaver/schema"
	"github.com/drblury/mongoweaver/store"
)

const missingID = "000000000000000000000000"

type fixture struct {
	db     *document.Database
	person *document.Model
	pet    *document.Model
	router *httprouter.Router
}

func newFixture(t *testing.T, methods Methods, opts ...Option) *fixture {
	t.Helper()

	person := schema.MustNew("person", []schema.Field{
		{Path: "name", Type: schema.String, Required: true},
		{Path: "age", Type: schema.Number},
		{Path: "status", Type: schema.String, Default: "new"},
		{Path: "hidden", Type: schema.String, Hidden: schema.Hide},
		{Path: "_secret", Type: schema.String},
		{Path: "_meta", Type: schema.Mixed},
		{Path: "pet", Type: schema.ObjectID, Ref: "pet"},
	})
	pet := schema.MustNew("pet", []schema.Field{
		{Path: "name", Type: schema.String},
		{Path: "kind", Type: schema.String},
		{Path: "_owner", Type: schema.String},
	})
	reg, err := schema.NewRegistry(person, pet)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	db := document.NewDatabase(reg, store.NewMemory())

	f := &fixture{db: db, person: db.Bind(person), pet: db.Bind(pet), router: httprouter.New()}
	Mount(f.router, New(f.person, methods, opts...))
	return f
}

func (f *fixture) seed(t *testing.T, m *document.Model, body map[string]any) *document.Document {
	t.Helper()

	doc := m.New(body)
	if err := doc.Save(context.Background()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return doc
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) stored(t *testing.T, id any) bson.M {
	t.Helper()

	doc, err := f.person.FindByID(context.Background(), id, "")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	return doc
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()

	var out []map[string]any
	if err := jsonutil.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid list body %q: %v", rec.Body.String(), err)
	}
	return out
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := jsonutil.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid object body %q: %v", rec.Body.String(), err)
	}
	return out
}

func assertNoHidden(t *testing.T, doc map[string]any) {
	t.Helper()

	for _, key := range []string{"hidden", "_secret", "_meta", "__v", "_owner"} {
		if _, ok := doc[key]; ok {
			t.Fatalf("hidden field %q leaked in %#v", key, doc)
		}
	}
}

func TestFindReturnsDocumentsWithCountAndCacheHeaders(t *testing.T) {
	f := newFixture(t, AllMethods())
	for _, name := range []string{"a", "b", "c"} {
		f.seed(t, f.person, map[string]any{"name": name, "hidden": "h", "_secret": "s"})
	}

	rec := f.do(http.MethodGet, "/person", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if got := rec.Header().Get(HeaderTotalCount); got != "3" {
		t.Fatalf("unexpected count header %q", got)
	}
	for header, want := range map[string]string{
		"Cache-Control": "no-cache, no-store, must-revalidate",
		"Pragma":        "no-cache",
		"Expires":       "0",
		"Content-Type":  "application/json; charset=UTF-8",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("unexpected %s header %q", header, got)
		}
	}

	docs := decodeList(t, rec)
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for _, doc := range docs {
		assertNoHidden(t, doc)
		if doc["_id"] == nil || doc["status"] != "new" {
			t.Fatalf("unexpected document %#v", doc)
		}
	}
}

func TestFindAppliesSortSkipAndLimit(t *testing.T) {
	f := newFixture(t, AllMethods())
	f.seed(t, f.person, map[string]any{"name": "a", "age": 30, "status": "x"})
	f.seed(t, f.person, map[string]any{"name": "b", "age": 10, "status": "y"})
	f.seed(t, f.person, map[string]any{"name": "c", "age": 20, "status": "x"})

	tests := []struct {
		name  string
		query string
		count string
		want  []string
	}{
		{name: "ascending", query: "$sort=age", count: "3", want: []string{"b", "c", "a"}},
		{name: "descending", query: "$sort=-age", count: "3", want: []string{"a", "c", "b"}},
		{name: "tie break", query: "$sort=status,-age", count: "3", want: []string{"a", "c", "b"}},
		{name: "paging", query: "$sort=age&$skip=1&$limit=1", count: "3", want: []string{"c"}},
		{name: "filter", query: "status=x&$sort=name", count: "2", want: []string{"a", "c"}},
		{name: "operator", query: "age[$gte]=20&$sort=name", count: "2", want: []string{"a", "c"}},
		{name: "or", query: "$or[0][name]=a&$or[1][name]=b&$sort=name", count: "2", want: []string{"a", "b"}},
		{name: "invalid paging", query: "$skip=-4&$limit=zero&$sort=name", count: "3", want: []string{"a", "b", "c"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/person?"+tc.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get(HeaderTotalCount); got != tc.count {
				t.Fatalf("unexpected count %q, want %q", got, tc.count)
			}
			docs := decodeList(t, rec)
			names := make([]string, len(docs))
			for i, doc := range docs {
				names[i], _ = doc["name"].(string)
			}
			if fmt.Sprint(names) != fmt.Sprint(tc.want) {
				t.Fatalf("unexpected order %v, want %v", names, tc.want)
			}
		})
	}
}

func TestFindIgnoresHiddenFieldsInQuery(t *testing.T) {
	f := newFixture(t, AllMethods())
	f.seed(t, f.person, map[string]any{"name": "a", "hidden": "one"})
	f.seed(t, f.person, map[string]any{"name": "b", "hidden": "two"})

	rec := f.do(http.MethodGet, "/person?hidden=one&$or[0][_secret]=x&$select=name,hidden&$sort=-hidden", "")

	if got := rec.Header().Get(HeaderTotalCount); got != "2" {
		t.Fatalf("expected hidden filter to be ignored, count %q", got)
	}
	for _, doc := range decodeList(t, rec) {
		assertNoHidden(t, doc)
		if doc["status"] != nil {
			t.Fatalf("expected select to limit fields, got %#v", doc)
		}
	}
}

func TestFindCannotOrderOrMatchByHiddenFields(t *testing.T) {
	f := newFixture(t, AllMethods())
	f.seed(t, f.person, map[string]any{"name": "n1", "hidden": "c", "_secret": "c", "_meta": map[string]any{"role": "user"}})
	f.seed(t, f.person, map[string]any{"name": "n2", "hidden": "a", "_secret": "a", "_meta": map[string]any{"role": "admin"}})
	f.seed(t, f.person, map[string]any{"name": "n3", "hidden": "b", "_secret": "b", "_meta": map[string]any{"role": "user"}})

	tests := []struct {
		name  string
		query string
		count string
		want  []string
	}{
		{name: "ascending hidden sort", query: "$sort=%2B_secret,%2Bhidden,-name", count: "3", want: []string{"n3", "n2", "n1"}},
		{name: "dotted hidden filter", query: "_meta.role=admin&$sort=name", count: "3", want: []string{"n1", "n2", "n3"}},
		{name: "bracketed hidden filter", query: "_meta[role]=admin&$sort=name", count: "3", want: []string{"n1", "n2", "n3"}},
		{name: "dotted hidden select", query: "$select=%2B_meta.role,name&$sort=name", count: "3", want: []string{"n1", "n2", "n3"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/person?"+tc.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get(HeaderTotalCount); got != tc.count {
				t.Fatalf("unexpected count %q, want %q", got, tc.count)
			}
			docs := decodeList(t, rec)
			names := make([]string, len(docs))
			for i, doc := range docs {
				assertNoHidden(t, doc)
				names[i], _ = doc["name"].(string)
			}
			if fmt.Sprint(names) != fmt.Sprint(tc.want) {
				t.Fatalf("unexpected order %v, want %v", names, tc.want)
			}
		})
	}
}

func TestFindRejectsMalformedQueries(t *testing.T) {
	f := newFixture(t, AllMethods())

	for _, target := range []string{"/person?age=old", "/person?name=a&name[$ne]=b"} {
		rec := f.do(http.MethodGet, target, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestFindWithSplitCountHeaders(t *testing.T) {
	f := newFixture(t, AllMethods(), WithCountHeaders(CountHeaderSplit))
	for _, name := range []string{"a", "b", "c"} {
		f.seed(t, f.person, map[string]any{"name": name})
	}

	rec := f.do(http.MethodGet, "/person?$limit=2", "")
	if rec.Header().Get(HeaderTotalResults) != "3" || rec.Header().Get(HeaderMaxResults) != "2" {
		t.Fatalf("unexpected count headers %v", rec.Header())
	}
	if rec.Header().Get(HeaderTotalCount) != "" {
		t.Fatal("expected X-Total-Count to be absent")
	}

	rec = f.do(http.MethodGet, "/person", "")
	if rec.Header().Get(HeaderMaxResults) != "3" {
		t.Fatalf("expected capacity to equal the total without limit, got %q", rec.Header().Get(HeaderMaxResults))
	}
}

func TestFindByID(t *testing.T) {
	f := newFixture(t, AllMethods())
	doc := f.seed(t, f.person, map[string]any{"name": "a", "hidden": "h"})
	id := doc.ID().(primitive.ObjectID).Hex()

	rec := f.do(http.MethodGet, "/person/"+id, "")
	if rec.Code != http.StatusOK || rec.Header().Get(HeaderTotalCount) != "1" {
		t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
	}
	body := decodeObject(t, rec)
	assertNoHidden(t, body)
	if body["name"] != "a" || body["_id"] != id {
		t.Fatalf("unexpected body %#v", body)
	}

	rec = f.do(http.MethodGet, "/person/"+missingID, "")
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(HeaderTotalCount) != "0" {
		t.Fatalf("expected count 0, got %q", rec.Header().Get(HeaderTotalCount))
	}

	rec = f.do(http.MethodGet, "/person/not-an-id", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestPopulateWithSelect(t *testing.T) {
	f := newFixture(t, AllMethods())
	pet := f.seed(t, f.pet, map[string]any{"name": "rex", "kind": "dog", "_owner": "a"})
	person := f.seed(t, f.person, map[string]any{"name": "a", "pet": pet.ID()})
	petID := pet.ID().(primitive.ObjectID).Hex()

	rec := f.do(http.MethodGet, "/person?$populate=pet[name]", "")
	docs := decodeList(t, rec)
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	populated, ok := docs[0]["pet"].(map[string]any)
	if !ok {
		t.Fatalf("expected populated pet, got %#v", docs[0]["pet"])
	}
	if len(populated) != 2 || populated["name"] != "rex" || populated["_id"] != petID {
		t.Fatalf("expected only name and _id, got %#v", populated)
	}

	id := person.ID().(primitive.ObjectID).Hex()
	rec = f.do(http.MethodGet, "/person/"+id+"?$populate=pet", "")
	populated, _ = decodeObject(t, rec)["pet"].(map[string]any)
	assertNoHidden(t, populated)
	if populated["kind"] != "dog" {
		t.Fatalf("expected full pet, got %#v", populated)
	}

	rec = f.do(http.MethodGet, "/person?$populate=name", "")
	if docs := decodeList(t, rec); docs[0]["name"] != "a" {
		t.Fatalf("expected non-ref populate to be ignored, got %#v", docs[0])
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t, AllMethods())

	rec := f.do(http.MethodPost, "/person", `{"_id":"`+missingID+`","name":"a","age":"3","extra":true,"hidden":"h","_secret":"s"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeObject(t, rec)
	assertNoHidden(t, body)
	if body["name"] != "a" || body["age"] != float64(3) || body["status"] != "new" {
		t.Fatalf("unexpected body %#v", body)
	}
	if _, ok := body["extra"]; ok {
		t.Fatalf("expected unknown field to be dropped, got %#v", body)
	}
	id, _ := body["_id"].(string)
	if id == "" || id == missingID {
		t.Fatalf("expected generated id, got %q", id)
	}

	stored, err := f.person.Find(context.Background(), nil, query.Options{})
	if err != nil || len(stored) != 1 {
		t.Fatalf("expected one stored document, got %v %v", stored, err)
	}
	if _, ok := stored[0]["hidden"]; ok {
		t.Fatalf("expected hidden body field to be dropped, got %#v", stored[0])
	}
	if _, ok := stored[0]["extra"]; ok {
		t.Fatalf("expected unknown field not to be stored, got %#v", stored[0])
	}
}

func TestCreateValidationError(t *testing.T) {
	f := newFixture(t, AllMethods())

	rec := f.do(http.MethodPost, "/person", `{"age":4}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := rec.Header().Get(HeaderErrorMessage); got != "Path `name` is required." {
		t.Fatalf("unexpected error header %q", got)
	}
	body := decodeObject(t, rec)
	verr, ok := body["error"].(map[string]any)
	if !ok || verr["name"] != "ValidationError" {
		t.Fatalf("unexpected error body %#v", body)
	}

	count, err := f.person.Count(context.Background(), nil)
	if err != nil || count != 0 {
		t.Fatalf("expected nothing persisted, got %d %v", count, err)
	}

	rec = f.do(http.MethodPost, "/person", `{"name":"a","age":"old"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Header().Get(HeaderErrorMessage), "age") {
		t.Fatalf("expected cast failure to be a validation error, got %d %v", rec.Code, rec.Header())
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	f := newFixture(t, AllMethods())

	for _, body := range []string{`{"name":`, `["a"]`} {
		rec := f.do(http.MethodPost, "/person", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/problem+json" {
			t.Fatalf("expected problem document, got %q", rec.Header().Get("Content-Type"))
		}
	}
}

func TestSavePutOverwritesAndPatchMerges(t *testing.T) {
	f := newFixture(t, AllMethods())
	doc := f.seed(t, f.person, map[string]any{"name": "a", "age": 3, "status": "old", "hidden": "h"})
	id := doc.ID().(primitive.ObjectID).Hex()

	rec := f.do(http.MethodPatch, "/person/"+id, `{"age":4,"_id":"`+missingID+`","hidden":"x"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected PATCH status %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeObject(t, rec)
	assertNoHidden(t, body)
	if body["name"] != "a" || body["age"] != float64(4) || body["status"] != "old" || body["_id"] != id {
		t.Fatalf("unexpected PATCH body %#v", body)
	}

	rec = f.do(http.MethodPut, "/person/"+id, `{"name":"b"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected PUT status %d: %s", rec.Code, rec.Body.String())
	}
	body = decodeObject(t, rec)
	if body["name"] != "b" || body["status"] != "new" {
		t.Fatalf("unexpected PUT body %#v", body)
	}
	if _, ok := body["age"]; ok {
		t.Fatalf("expected PUT to drop age, got %#v", body)
	}

	stored := f.stored(t, doc.ID())
	if stored["hidden"] != "h" {
		t.Fatalf("expected hidden field to be preserved, got %#v", stored)
	}

	rec = f.do(http.MethodPut, "/person/"+id, `{"age":5}`)
	if rec.Code != http.StatusBadRequest || rec.Header().Get(HeaderErrorMessage) != "Path `name` is required." {
		t.Fatalf("expected validation failure, got %d %v", rec.Code, rec.Header())
	}
}

func TestSaveAndRemoveMissingStopChain(t *testing.T) {
	var called int
	after := HandlerFunc(func(c *Context, next Next) error {
		called++
		return next()
	})
	f := newFixture(t, Methods{
		Save:   Custom(Builtin, after),
		Remove: Custom(Builtin, after),
	})

	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		rec := f.do(method, "/person/"+missingID, `{"name":"a"}`)
		if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
			t.Fatalf("%s: expected empty 204, got %d %q", method, rec.Code, rec.Body.String())
		}
	}
	if called != 0 {
		t.Fatalf("expected downstream handlers to be skipped, ran %d times", called)
	}

	count, _ := f.person.Count(context.Background(), nil)
	if count != 0 {
		t.Fatalf("expected no side effects, found %d documents", count)
	}
}

func TestRemove(t *testing.T) {
	f := newFixture(t, AllMethods())
	doc := f.seed(t, f.person, map[string]any{"name": "a", "hidden": "h"})
	id := doc.ID().(primitive.ObjectID).Hex()

	rec := f.do(http.MethodDelete, "/person/"+id+"?$select=name", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := decodeObject(t, rec)
	if body["name"] != "a" || body["status"] != nil {
		t.Fatalf("unexpected body %#v", body)
	}
	if f.stored(t, doc.ID()) != nil {
		t.Fatal("expected document to be deleted")
	}
}

func TestOverridesRunBetweenFetchAndPersist(t *testing.T) {
	rename := HandlerFunc(func(c *Context, next Next) error {
		doc, ok := c.Response.Body.(*document.Document)
		if !ok {
			return errors.New("expected a document body")
		}
		if err := doc.Set("status", "approved"); err != nil {
			return err
		}
		return next()
	})
	keep := HandlerFunc(func(c *Context, next Next) error {
		c.Response.Body = map[string]any{"kept": true}
		return next()
	})
	f := newFixture(t, Methods{
		Create: Custom(Builtin, rename),
		Save:   Custom(Builtin, rename),
		Remove: Custom(Builtin, keep),
	})

	rec := f.do(http.MethodPost, "/person", `{"name":"a"}`)
	body := decodeObject(t, rec)
	if rec.Code != http.StatusCreated || body["status"] != "approved" {
		t.Fatalf("unexpected create response %d %#v", rec.Code, body)
	}
	id, _ := body["_id"].(string)

	f.do(http.MethodPatch, "/person/"+id, `{"status":"draft"}`)
	stored, err := f.person.FindByID(context.Background(), id, "")
	if err != nil || stored["status"] != "approved" {
		t.Fatalf("expected override change to be re-saved, got %#v %v", stored, err)
	}

	rec = f.do(http.MethodDelete, "/person/"+id, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"kept":true`) {
		t.Fatalf("unexpected delete response %d %s", rec.Code, rec.Body.String())
	}
	if stored, _ := f.person.FindByID(context.Background(), id, ""); stored == nil {
		t.Fatal("expected document to survive when the body is no longer removable")
	}
}

func TestValidationErrorsFromOverridesBecome400(t *testing.T) {
	blank := HandlerFunc(func(c *Context, next Next) error {
		doc, ok := c.Response.Body.(*document.Document)
		if !ok {
			return errors.New("expected a document body")
		}
		if err := doc.Set("name", ""); err != nil {
			return err
		}
		if err := doc.Save(c.Context()); err != nil {
			return err
		}
		return next()
	})
	f := newFixture(t, Methods{Save: Custom(Builtin, blank)})
	doc := f.seed(t, f.person, map[string]any{"name": "a"})
	id := doc.ID().(primitive.ObjectID).Hex()

	rec := f.do(http.MethodPatch, "/person/"+id, `{"age":3}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(HeaderErrorMessage); got != "Path `name` is required." {
		t.Fatalf("unexpected error header %q", got)
	}
	if body := decodeObject(t, rec); body["error"] == nil {
		t.Fatalf("expected validation error body, got %#v", body)
	}
	if f.stored(t, doc.ID())["name"] != "a" {
		t.Fatal("expected stored name to be unchanged")
	}
}

func TestCustomHandlerReplacesDefault(t *testing.T) {
	f := newFixture(t, Methods{
		Find: Custom(HandlerFunc(func(c *Context, next Next) error {
			c.Response.Status = http.StatusOK
			c.Response.Body = map[string]any{"select": c.Options.Select, "filter": c.Filter}
			return next()
		})),
	})
	f.seed(t, f.person, map[string]any{"name": "a"})

	rec := f.do(http.MethodGet, "/person?name=a&hidden=x&$limit=1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Header().Get(HeaderTotalCount) != "" {
		t.Fatal("expected default find not to run")
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Fatal("expected init step to run")
	}
	body := decodeObject(t, rec)
	if body["select"] != "-hidden -_secret -__v" {
		t.Fatalf("unexpected select %#v", body["select"])
	}
	filter, _ := body["filter"].(map[string]any)
	if len(filter) != 1 || filter["name"] != "a" {
		t.Fatalf("expected scrubbed filter, got %#v", filter)
	}
}

func TestDisabledMethodsAreNotRegistered(t *testing.T) {
	f := newFixture(t, Methods{Find: Default()})

	if rec := f.do(http.MethodGet, "/person", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected find to be mounted, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/person", `{"name":"a"}`); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected create to be missing, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/person/"+missingID, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected findById to be missing, got %d", rec.Code)
	}
}

func TestRoutes(t *testing.T) {
	f := newFixture(t, AllMethods())
	r := New(f.person, Methods{Find: Default(), Save: Default(), Create: Custom()}, WithPath("people/"))

	routes := r.Routes()
	want := []Route{
		{Method: http.MethodGet, Path: "/people", Operation: OpFind},
		{Method: http.MethodPut, Path: "/people/:id", Operation: OpSave},
		{Method: http.MethodPatch, Path: "/people/:id", Operation: OpSave},
	}
	if fmt.Sprint(routes) != fmt.Sprint(want) {
		t.Fatalf("unexpected routes %v", routes)
	}
	if r.Path() != "/people" {
		t.Fatalf("unexpected path %q", r.Path())
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		ok     bool
	}{
		{err: &schema.CastError{Path: "age", Type: schema.Number, Value: "x"}, status: http.StatusBadRequest, ok: true},
		{err: fmt.Errorf("wrap: %w", query.ErrMalformedFilter), status: http.StatusBadRequest, ok: true},
		{err: &schema.ValidationError{Model: "person"}, status: http.StatusBadRequest, ok: true},
		{err: fmt.Errorf("insert: %w", store.ErrDuplicateKey), status: http.StatusConflict, ok: true},
		{err: errors.New("boom")},
	}

	for _, tc := range tests {
		status, ok := ClassifyError(tc.err)
		if status != tc.status || ok != tc.ok {
			t.Fatalf("%v: got (%d, %v), want (%d, %v)", tc.err, status, ok, tc.status, tc.ok)
		}
	}
}
