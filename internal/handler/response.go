package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/fambudget/budget-server-go/internal/errors"
	"github.com/fambudget/budget-server-go/internal/httputil"
)

func respond(w http.ResponseWriter, status int, data any) {
	httputil.WriteData(w, status, data)
}

func respondError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// decodeJSON parses a request body into dst, rejecting unknown fields
// so malformed shapes fail at the boundary instead of inside services.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return apperrors.ValidationError("Invalid request body").WithCause(err)
	}
	return nil
}
