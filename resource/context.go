package resource

import (
	"context"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"github.com/drblury/mongoweaver/document"
	"github.com/drblury/mongoweaver/query"
)

// IDParam is the route parameter holding the document id.
const IDParam = "id"

// Context carries one request through a handler chain. Handlers read the
// request, the translated query options and the scrubbed body, and write the
// response fields; the resource renders Response once the chain returns.
type Context struct {
	Request *http.Request
	Params  httprouter.Params
	Model   *document.Model

	// Options are the translated special query parameters.
	Options query.Options
	// Filter is the query string minus special parameters and hidden paths.
	Filter map[string]any
	// Body is the decoded request body minus hidden paths and _id.
	Body map[string]any

	Response Response

	resource *Resource
}

// Response is what the resource writes once the chain completes. A nil Body
// produces an empty response.
type Response struct {
	Status int
	Body   any
	Header http.Header
}

// Context returns the request context.
func (c *Context) Context() context.Context {
	return c.Request.Context()
}

// ID returns the id route parameter.
func (c *Context) ID() string {
	return c.Params.ByName(IDParam)
}

// SetCount reports the number of matching documents through the configured
// count headers. capacity is the page size; zero means the whole result set.
func (c *Context) SetCount(total, capacity int64) {
	mode := CountHeaderTotal
	if c.resource != nil {
		mode = c.resource.countHeaders
	}
	switch mode {
	case CountHeaderSplit:
		if capacity <= 0 {
			capacity = total
		}
		c.Response.Header.Set(HeaderTotalResults, strconv.FormatInt(total, 10))
		c.Response.Header.Set(HeaderMaxResults, strconv.FormatInt(capacity, 10))
	default:
		c.Response.Header.Set(HeaderTotalCount, strconv.FormatInt(total, 10))
	}
}
