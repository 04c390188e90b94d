// Package http provides the JSON API served to the dashboard.
//
// This file implements utilities for decoding and validating request
// bodies and query parameters. Field-level failures are returned as
// core validation errors so they map to 422 like service errors do.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"expensedash/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

var errMalformedBody = errors.New("request body must be a single JSON object")

// decodeJSON reads one JSON object into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return err
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errMalformedBody
	}
	return nil
}

// parseAsOf reads the asOf query parameter, defaulting to today.
func parseAsOf(r *http.Request, today func() core.Date) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get("asOf"))
	if v == "" {
		return today(), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Invalid("asOf", err)
	}
	return d, nil
}

// parseAmount accepts a JSON number or numeric string.
func parseAmount(n json.Number) (core.Money, error) {
	m, err := core.ParseAmount(n.String())
	if err != nil {
		return core.Money{}, core.Invalid("amount", err)
	}
	return m, nil
}

func parseDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.Invalid("date", err)
	}
	return d, nil
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
