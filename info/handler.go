package info

import (
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/mongoweaver/openapi"
	"github.com/drblury/mongoweaver/probe"
	"github.com/drblury/mongoweaver/resource"
	"github.com/drblury/mongoweaver/responder"
)

// InfoProvider returns the payload that will be exposed by the version endpoint.
type InfoProvider func() any

// SwaggerProvider returns the raw OpenAPI document served by the
// documentation endpoints.
type SwaggerProvider func() ([]byte, error)

// InfoOption configures NewInfoHandler.
type InfoOption func(*InfoHandler)

// TemplateDataProvider allows callers to customise the data payload passed to
// the OpenAPI HTML template at render time.
type TemplateDataProvider func(r *http.Request, baseURL string) any

const defaultProbeTimeout = 2 * time.Second

// ProbeFunc is executed to determine the outcome of liveness or readiness
// probes. Returning a non-nil error marks the probe as failed.
type ProbeFunc = probe.Func

// InfoHandler serves the operational endpoints.
type InfoHandler struct {
	*responder.Responder
	baseURL         string
	title           string
	infoProvider    InfoProvider
	swaggerProvider SwaggerProvider
	resources       []*resource.Resource
	openapiTemplate *template.Template
	dataProvider    TemplateDataProvider
	probeTimeout    time.Duration
	livenessChecks  []ProbeFunc
	readinessChecks []ProbeFunc
}

// NewInfoHandler constructs an InfoHandler with sensible defaults.
func NewInfoHandler(opts ...InfoOption) *InfoHandler {
	ih := &InfoHandler{
		Responder: responder.NewResponder(),
		title:     "API reference",
		infoProvider: func() any {
			return map[string]string{}
		},
		swaggerProvider: func() ([]byte, error) {
			return nil, errors.New("api swagger provider not configured")
		},
		openapiTemplate: defaultOpenAPITemplate,
		probeTimeout:    defaultProbeTimeout,
	}
	ih.dataProvider = ih.defaultTemplateData
	for _, opt := range opts {
		if opt != nil {
			opt(ih)
		}
	}
	return ih
}

// WithInfoResponder replaces the responder used to craft JSON responses and
// handle error reporting.
func WithInfoResponder(responder *responder.Responder) InfoOption {
	return func(ih *InfoHandler) {
		if responder != nil {
			ih.Responder = responder
		}
	}
}

// WithBaseURL sets the URL prefix the HTML viewer loads openapi.json from.
func WithBaseURL(baseURL string) InfoOption {
	return func(ih *InfoHandler) {
		ih.baseURL = baseURL
	}
}

// WithTitle sets the title of the HTML viewer.
func WithTitle(title string) InfoOption {
	return func(ih *InfoHandler) {
		if title != "" {
			ih.title = title
		}
	}
}

// WithInfoProvider swaps the default metadata provider with a user supplied
// implementation.
func WithInfoProvider(provider InfoProvider) InfoOption {
	return func(ih *InfoHandler) {
		if provider != nil {
			ih.infoProvider = provider
		}
	}
}

// WithSwaggerProvider sets the source of the OpenAPI JSON document.
func WithSwaggerProvider(provider SwaggerProvider) InfoOption {
	return func(ih *InfoHandler) {
		if provider != nil {
			ih.swaggerProvider = provider
		}
	}
}

// WithOpenAPIDocument serves doc, rendered once on first request.
func WithOpenAPIDocument(doc *openapi3.T) InfoOption {
	if doc == nil {
		return nil
	}
	render := sync.OnceValues(func() ([]byte, error) {
		return openapi.Marshal(doc)
	})
	return WithSwaggerProvider(render)
}

// WithResources lists the routes of resources on the resources endpoint.
func WithResources(resources ...*resource.Resource) InfoOption {
	return func(ih *InfoHandler) {
		for _, r := range resources {
			if r != nil {
				ih.resources = append(ih.resources, r)
			}
		}
	}
}

// WithOpenAPITemplate injects a custom html/template instance used to render
// the OpenAPI viewer page.
func WithOpenAPITemplate(tmpl *template.Template) InfoOption {
	return func(ih *InfoHandler) {
		if tmpl != nil {
			ih.openapiTemplate = tmpl
		}
	}
}

// WithOpenAPITemplateData overrides the template data provider that runs for
// each request to the HTML endpoint.
func WithOpenAPITemplateData(provider TemplateDataProvider) InfoOption {
	return func(ih *InfoHandler) {
		if provider != nil {
			ih.dataProvider = provider
		}
	}
}

// WithProbeTimeout adjusts the maximum duration allowed for probe checks.
func WithProbeTimeout(timeout time.Duration) InfoOption {
	return func(ih *InfoHandler) {
		if timeout > 0 {
			ih.probeTimeout = timeout
		}
	}
}

// WithLivenessChecks replaces the default liveness checks with the supplied
// functions.
func WithLivenessChecks(checks ...ProbeFunc) InfoOption {
	return func(ih *InfoHandler) {
		ih.livenessChecks = filterProbes(checks)
	}
}

// WithReadinessChecks replaces the default readiness checks with the supplied
// functions.
func WithReadinessChecks(checks ...ProbeFunc) InfoOption {
	return func(ih *InfoHandler) {
		ih.readinessChecks = filterProbes(checks)
	}
}

func (ih *InfoHandler) defaultTemplateData(_ *http.Request, baseURL string) any {
	return map[string]any{
		"BaseURL": baseURL,
		"Title":   ih.title,
	}
}
