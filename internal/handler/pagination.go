package handler

import (
	"net/http"
	"strconv"

	"github.com/fambudget/budget-server-go/internal/config"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit/offset query parameters, falling back to
// the configured page size for missing, malformed, or out-of-range
// values.
func ParsePagination(r *http.Request) PaginationParams {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit <= 0 || limit > config.PageSizeMax {
		limit = config.PageSizeDefault
	}

	if offset < 0 {
		offset = 0
	}

	return PaginationParams{
		Limit:  limit,
		Offset: offset,
	}
}
