package resource

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/drblury/mongoweaver/document"
	"github.com/drblury/mongoweaver/query"
	"github.com/drblury/mongoweaver/responder"
	"github.com/drblury/mongoweaver/schema"
)

// Route is one registered endpoint of a resource.
type Route struct {
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Operation Operation `json:"operation"`
}

// Resource serves the generated CRUD routes of one model.
type Resource struct {
	model        *document.Model
	path         string
	responder    *responder.Responder
	logger       *slog.Logger
	countHeaders CountHeaders
	chains       map[Operation][]Handler
	routes       []Route
}

// New builds the resource for model. Operations disabled in methods get no
// route. The base path defaults to "/" followed by the model name.
func New(model *document.Model, methods Methods, opts ...Option) *Resource {
	if model == nil {
		panic("resource: model cannot be nil")
	}

	settings := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	r := &Resource{
		model:        model,
		path:         settings.path,
		responder:    settings.responder,
		logger:       settings.logger,
		countHeaders: settings.countHeaders,
		chains:       make(map[Operation][]Handler),
	}
	if r.path == "" {
		r.path = "/" + model.Name()
	}
	r.path = "/" + strings.Trim(r.path, "/")
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.responder == nil {
		r.responder = responder.NewResponder(
			responder.WithLogger(r.logger),
			responder.WithErrorClassifier(ClassifyError),
		)
	}

	single := r.path + "/:" + IDParam
	for _, route := range []Route{
		{Method: http.MethodGet, Path: r.path, Operation: OpFind},
		{Method: http.MethodGet, Path: single, Operation: OpFindByID},
		{Method: http.MethodPost, Path: r.path, Operation: OpCreate},
		{Method: http.MethodPut, Path: single, Operation: OpSave},
		{Method: http.MethodPatch, Path: single, Operation: OpSave},
		{Method: http.MethodDelete, Path: single, Operation: OpRemove},
	} {
		method := methods.Get(route.Operation)
		if !method.Enabled() {
			continue
		}
		if _, ok := r.chains[route.Operation]; !ok {
			chain := []Handler{HandlerFunc(r.init)}
			r.chains[route.Operation] = append(chain, method.resolve(defaultHandler(route.Operation))...)
		}
		r.routes = append(r.routes, route)
	}
	return r
}

// Model returns the model served by the resource.
func (r *Resource) Model() *document.Model { return r.model }

// Path returns the collection path.
func (r *Resource) Path() string { return r.path }

// Routes lists the registered endpoints.
func (r *Resource) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Register adds the routes of the resource to router.
func (r *Resource) Register(router *httprouter.Router) {
	for _, route := range r.routes {
		router.Handler(route.Method, route.Path, r.handler(route.Operation))
		r.logger.Debug("resource route registered",
			"model", r.model.Name(),
			"method", route.Method,
			"path", route.Path,
			"operation", string(route.Operation),
		)
	}
}

// Mount registers every resource on router.
func Mount(router *httprouter.Router, resources ...*Resource) {
	for _, r := range resources {
		r.Register(router)
	}
}

func (r *Resource) handler(op Operation) http.Handler {
	chain := r.chains[op]
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		c := &Context{
			Request:  req,
			Params:   httprouter.ParamsFromContext(req.Context()),
			Model:    r.model,
			Response: Response{Header: make(http.Header)},
			resource: r,
		}

		if hasBody(req.Method) {
			var body map[string]any
			if !r.responder.ReadOptionalRequestBody(w, req, &body) {
				return
			}
			c.Body = body
		}
		if c.Body == nil {
			c.Body = map[string]any{}
		}

		err := run(c, chain)
		for key, values := range c.Response.Header {
			w.Header()[key] = values
		}
		if err != nil {
			r.responder.HandleErrors(w, req, err)
			return
		}
		r.responder.Respond(w, req, c.status(), c.Response.Body)
	})
}

// init disables caching, translates the query string and scrubs the body
// before the operation's handlers run.
func (r *Resource) init(c *Context, next Next) error {
	h := c.Response.Header
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("Content-Type", "application/json; charset=UTF-8")

	s := r.model.Schema()
	opts, filter, err := query.Translate(s, r.model.Database().Registry(), c.Request.URL.RawQuery)
	if err != nil {
		return err
	}
	c.Options = opts
	c.Filter = filter

	hidden := make([]string, 0, len(opts.Hidden)+1)
	hidden = append(hidden, opts.Hidden...)
	query.OmitDocument(c.Body, append(hidden, schema.IDPath))
	return next()
}

func (c *Context) status() int {
	if c.Response.Status != 0 {
		return c.Response.Status
	}
	if c.Response.Body == nil {
		return http.StatusNotFound
	}
	return http.StatusOK
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
