package resource_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/drblury/mongoweaver/document"
	"github.com/drblury/mongoweaver/resource"
	"github.com/drblury/mongoweaver/schema"
	"github.com/drblury/mongoweaver/store"
)

func ExampleNew() {
	article := schema.MustNew("article", []schema.Field{
		{Path: "title", Type: schema.String, Required: true},
		{Path: "draft", Type: schema.Boolean, Default: true},
		{Path: "_editorNotes", Type: schema.String},
	})
	reg, _ := schema.NewRegistry(article)
	db := document.NewDatabase(reg, store.NewMemory())

	router := httprouter.New()
	resource.New(db.Bind(article), resource.AllMethods()).Register(router)

	create := httptest.NewRecorder()
	router.ServeHTTP(create, httptest.NewRequest(http.MethodPost, "/article",
		strings.NewReader(`{"title":"Hello","_editorNotes":"tbd"}`)))
	fmt.Println(create.Code, strings.Contains(create.Body.String(), "_editorNotes"))

	list := httptest.NewRecorder()
	router.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/article?$select=title", nil))
	fmt.Println(list.Code, list.Header().Get("X-Total-Count"))

	missing := httptest.NewRecorder()
	router.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/article/000000000000000000000000", nil))
	fmt.Println(missing.Code, missing.Header().Get("X-Total-Count"))

	// Output:
	// 201 false
	// 200 1
	// 204 0
}

func ExampleCustom() {
	article := schema.MustNew("article", []schema.Field{
		{Path: "title", Type: schema.String, Required: true},
	})
	reg, _ := schema.NewRegistry(article)
	db := document.NewDatabase(reg, store.NewMemory())

	titleCase := resource.HandlerFunc(func(c *resource.Context, next resource.Next) error {
		if doc, ok := c.Response.Body.(*document.Document); ok {
			title, _ := doc.Get("title")
			if s, ok := title.(string); ok {
				if err := doc.Set("title", strings.ToUpper(s)); err != nil {
					return err
				}
			}
		}
		return next()
	})

	router := httprouter.New()
	resource.New(db.Bind(article), resource.Methods{
		Create: resource.Custom(resource.Builtin, titleCase),
	}).Register(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/article", strings.NewReader(`{"title":"hello"}`)))
	fmt.Println(rec.Code, strings.Contains(rec.Body.String(), `"title":"HELLO"`))

	// Output:
	// 201 true
}
