package common

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Pagination carries limit/offset list parameters.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ParsePagination extracts limit and offset query parameters, clamping the
// limit to a sane maximum.
func ParsePagination(r *http.Request) Pagination {
	p := Pagination{Limit: defaultPageSize}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		p.Limit = l
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o > 0 {
		p.Offset = o
	}
	return p
}
