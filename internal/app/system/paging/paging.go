// internal/app/system/paging/paging.go

// Package paging parses the limit/skip query parameters used by every
// list endpoint and clamps them to sane bounds.
package paging

import (
	"net/http"
	"strconv"
)

// DefaultLimit is used when the client sends no limit.
const DefaultLimit = 50

// MaxLimit caps how many documents one request may pull.
const MaxLimit = 200

// Page holds parsed pagination parameters ready for Mongo Find options.
type Page struct {
	Limit int64
	Skip  int64
}

// Parse reads "limit" and "skip" from the query string. Invalid or absent
// values fall back to defaults; limit is clamped to MaxLimit.
func Parse(r *http.Request) Page {
	return ParseWithDefault(r, DefaultLimit)
}

// ParseWithDefault is Parse with a caller-chosen default limit, for
// endpoints whose natural page size differs (e.g. top-5 upcoming events).
func ParseWithDefault(r *http.Request, defaultLimit int) Page {
	p := Page{Limit: int64(defaultLimit)}

	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			if n > MaxLimit {
				n = MaxLimit
			}
			p.Limit = int64(n)
		}
	}
	if s := r.URL.Query().Get("skip"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			p.Skip = int64(n)
		}
	}
	return p
}
