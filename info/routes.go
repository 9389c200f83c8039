package info

import (
	"errors"
	"net/http"
	"strings"

	"github.com/drblury/mongoweaver/resource"
)

// GetStatus returns a simple health payload that can be used for lightweight diagnostics.
func (ih *InfoHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ih.respondProbe(w, r, http.StatusOK, "HEALTHY")
}

// GetHealthz implements the liveness probe recommended for Kubernetes.
func (ih *InfoHandler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	if err := ih.runChecks(r.Context(), ih.livenessChecks); err != nil {
		ih.HandleAPIError(w, r, http.StatusServiceUnavailable, err, "liveness probe failed")
		return
	}
	ih.respondProbe(w, r, http.StatusOK, "ok")
}

// GetReadyz implements the readiness probe recommended for Kubernetes.
func (ih *InfoHandler) GetReadyz(w http.ResponseWriter, r *http.Request) {
	if err := ih.runChecks(r.Context(), ih.readinessChecks); err != nil {
		ih.HandleAPIError(w, r, http.StatusServiceUnavailable, err, "readiness probe failed")
		return
	}
	ih.respondProbe(w, r, http.StatusOK, "ready")
}

// GetVersion returns the structure provided by the configured InfoProvider.
func (ih *InfoHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	payload := ih.infoProvider()
	if payload == nil {
		payload = map[string]string{}
	}
	ih.RespondWithJSON(w, r, http.StatusOK, payload)
}

// GetOpenAPIJSON streams the configured OpenAPI JSON document to the caller.
func (ih *InfoHandler) GetOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	bytes, err := ih.swaggerProvider()
	if err != nil {
		ih.HandleAPIError(w, r, http.StatusInternalServerError, err, "failed to load swagger spec")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(bytes); err != nil {
		ih.Logger().Error("failed to write swagger response", "error", err)
	}
}

// GetOpenAPIHTML renders a viewer that fetches the OpenAPI document from the JSON endpoint.
func (ih *InfoHandler) GetOpenAPIHTML(w http.ResponseWriter, r *http.Request) {
	if ih.openapiTemplate == nil {
		err := errors.New("openapi template not configured")
		ih.HandleAPIError(w, r, http.StatusInternalServerError, err, "failed to render openapi template")
		return
	}

	var data any
	if ih.dataProvider != nil {
		data = ih.dataProvider(r, ih.baseURL)
	}
	if data == nil {
		data = ih.defaultTemplateData(r, ih.baseURL)
	}

	var page strings.Builder
	if err := ih.openapiTemplate.Execute(&page, data); err != nil {
		ih.HandleAPIError(w, r, http.StatusInternalServerError, err, "failed to render openapi template")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(page.String())); err != nil {
		ih.Logger().Error("failed to write openapi page", "error", err)
	}
}

// ResourceInfo describes one mounted resource.
type ResourceInfo struct {
	Model      string           `json:"model"`
	Collection string           `json:"collection"`
	Path       string           `json:"path"`
	Routes     []resource.Route `json:"routes"`
}

// GetResources lists the mounted resources and their routes.
func (ih *InfoHandler) GetResources(w http.ResponseWriter, r *http.Request) {
	out := make([]ResourceInfo, 0, len(ih.resources))
	for _, res := range ih.resources {
		out = append(out, ResourceInfo{
			Model:      res.Model().Name(),
			Collection: res.Model().Schema().Collection(),
			Path:       res.Path(),
			Routes:     res.Routes(),
		})
	}
	ih.RespondWithJSON(w, r, http.StatusOK, out)
}

// Handler serves every endpoint below prefix:
//
//	GET {prefix}/status
//	GET {prefix}/healthz
//	GET {prefix}/readyz
//	GET {prefix}/version
//	GET {prefix}/openapi.json
//	GET {prefix}/openapi
//	GET {prefix}/resources
func (ih *InfoHandler) Handler(prefix string) http.Handler {
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	mux := http.NewServeMux()
	for path, fn := range map[string]http.HandlerFunc{
		"/status":       ih.GetStatus,
		"/healthz":      ih.GetHealthz,
		"/readyz":       ih.GetReadyz,
		"/version":      ih.GetVersion,
		"/openapi.json": ih.GetOpenAPIJSON,
		"/openapi":      ih.GetOpenAPIHTML,
		"/resources":    ih.GetResources,
	} {
		mux.HandleFunc(http.MethodGet+" "+prefix+path, fn)
	}
	return mux
}
