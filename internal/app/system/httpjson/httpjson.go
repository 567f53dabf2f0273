// internal/app/system/httpjson/httpjson.go

// Package httpjson holds the small helpers every API handler uses to
// read and write JSON bodies. Errors use the {"detail": "..."} shape the
// frontend already understands.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes caps request bodies so a handler can't be fed an
// arbitrarily large payload. 1 MiB is generous for every form we accept.
const MaxBodyBytes = 1 << 20

// Write encodes v as JSON with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// OK is Write with http.StatusOK.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// errorBody matches the error shape of the original frontend contract.
type errorBody struct {
	Detail string `json:"detail"`
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, detail string) {
	Write(w, status, errorBody{Detail: detail})
}

// Decode reads the request body into dst, enforcing MaxBodyBytes and
// rejecting unknown fields so typos in client payloads surface as 400s
// instead of silently dropped data.
func Decode(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A second document in the body is a malformed request.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
