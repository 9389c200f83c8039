package resource

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/drblury/mongoweaver/query"
	"github.com/drblury/mongoweaver/schema"
	"github.com/drblury/mongoweaver/store"
)

// ClassifyError maps resource errors to statuses: malformed input is a 400 and
// duplicate keys are a 409. Anything else is left to the responder's 500.
func ClassifyError(err error) (int, bool) {
	var castErr *schema.CastError
	switch {
	case errors.As(err, &castErr),
		errors.Is(err, query.ErrMalformedFilter),
		schema.IsValidationError(err):
		return http.StatusBadRequest, true
	case errors.Is(err, store.ErrDuplicateKey), mongo.IsDuplicateKeyError(err):
		return http.StatusConflict, true
	}
	return 0, false
}
