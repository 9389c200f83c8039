package responder

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/drblury/mongoweaver/schema"
)

// ProblemDetails is an RFC 9457 problem document. Errors lists the failing
// document paths when the error came from casting or validating a write.
type ProblemDetails struct {
	Type      string         `json:"type,omitempty"`
	Title     string         `json:"title"`
	Status    int            `json:"status"`
	Detail    string         `json:"detail,omitempty"`
	Instance  string         `json:"instance,omitempty"`
	TraceID   string         `json:"traceId,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	Errors    []FieldProblem `json:"errors,omitempty"`
}

// FieldProblem describes one rejected document path.
type FieldProblem struct {
	Path    string `json:"path"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (r *Responder) buildProblemDetails(req *http.Request, status int, err error, meta statusMeta) ProblemDetails {
	return ProblemDetails{
		Type:      meta.typeURI,
		Title:     meta.title,
		Status:    status,
		Detail:    err.Error(),
		Instance:  requestInstance(req),
		TraceID:   r.traceID(req),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Errors:    fieldProblems(err),
	}
}

// fieldProblems flattens schema errors into per-path entries.
func fieldProblems(err error) []FieldProblem {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		out := make([]FieldProblem, 0, len(verr.Errors))
		for _, fe := range verr.Errors {
			out = append(out, FieldProblem{Path: fe.Path, Kind: fe.Kind, Message: fe.Message})
		}
		return out
	}
	var cerr *schema.CastError
	if errors.As(err, &cerr) {
		return []FieldProblem{{Path: cerr.Path, Kind: "cast", Message: cerr.Error()}}
	}
	return nil
}

func (r *Responder) logProblem(req *http.Request, meta statusMeta, problem ProblemDetails, err error, msgs []string) {
	attrs := []any{"error", err.Error(), "traceId", problem.TraceID, "status", problem.Status}
	if problem.Instance != "" {
		attrs = append(attrs, "instance", problem.Instance)
	}
	if len(problem.Errors) > 0 {
		paths := make([]string, len(problem.Errors))
		for i, fp := range problem.Errors {
			paths[i] = fp.Path
		}
		attrs = append(attrs, "paths", paths)
	}
	if len(msgs) > 0 {
		attrs = append(attrs, "logMessages", msgs)
	}
	r.logger().Log(requestContext(req), meta.logLevel, meta.logMsg, attrs...)
}

func (r *Responder) statusMetaFor(status int) statusMeta {
	return normalizeStatusMeta(status, r.statusMetadata[status])
}

func normalizeStatusMeta(status int, meta statusMeta) statusMeta {
	if meta.logLevel == 0 {
		meta.logLevel = slogLevelFor(status)
	}
	if meta.title == "" {
		meta.title = http.StatusText(status)
	}
	if meta.logMsg == "" {
		meta.logMsg = meta.title
	}
	if meta.typeURI == "" {
		meta.typeURI = fmt.Sprintf("%s/%d", statusDocBaseURL, status)
	}
	return meta
}
