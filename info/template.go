package info

import (
	_ "embed"
	"html/template"
)

//go:embed assets/openapi.html
var openapiHTML []byte

var defaultOpenAPITemplate = template.Must(
	template.New("openapi").Parse(string(openapiHTML)),
)
