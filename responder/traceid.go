package responder

import (
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"
)

// HeaderRequestID carries a caller supplied correlation id. When present it
// becomes the trace id of problem documents.
const HeaderRequestID = "X-Request-Id"

const maxRequestIDLength = 128

// traceID reuses a sane incoming request id or mints a ULID.
func (r *Responder) traceID(req *http.Request) string {
	if req != nil {
		id := strings.TrimSpace(req.Header.Get(HeaderRequestID))
		if id != "" && len(id) <= maxRequestIDLength && printable(id) {
			return id
		}
	}
	return ulid.Make().String()
}

func printable(s string) bool {
	for _, c := range s {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
