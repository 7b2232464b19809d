package utils

import (
	"net/http"
	"strconv"
)

// ParsePagination returns skip/limit suitable for mongo Find options.
func ParsePagination(r *http.Request, defLimit, maxLimit int) (int64, int64) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return int64((page - 1) * limit), int64(limit)
}

// ParseFloatQuery returns the query param as float64, ok=false when absent/bad.
func ParseFloatQuery(r *http.Request, key string) (float64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
