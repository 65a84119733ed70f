// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing request bodies, path
// parameters and list filters into service inputs.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"expenses/internal/core"
)

const (
	maxBodyBytes = 1 << 20

	// nonFieldErrors collects problems that concern the body as a whole.
	nonFieldErrors = "non_field_errors"

	msgNotString    = "Not a valid string."
	msgNotList      = "Expected a list of items."
	msgTrailingData = "JSON parse error - unexpected data after the request body."
)

// member binds a JSON object key to the payload field it decodes into.
type member struct {
	target  json.Unmarshaler
	invalid string
}

func categoryMembers(p *core.CategoryPayload) map[string]member {
	return map[string]member{
		"name": {&p.Name, msgNotString},
	}
}

func expenseMembers(p *core.ExpensePayload) map[string]member {
	return map[string]member{
		"value":       {&p.Value, core.MsgNotNumber},
		"spent_at":    {&p.SpentAt, core.MsgDatetime},
		"description": {&p.Description, msgNotString},
		"categories":  {&p.Categories, msgNotList},
	}
}

// decodeObject reads a JSON object from the request body into members.
// Keys that are not members are ignored; an empty body is an empty object.
// Every member that fails to decode is reported on its own key.
func decodeObject(w http.ResponseWriter, r *http.Request, members map[string]member) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if !errors.Is(err, io.EOF) {
			return bodyError(err)
		}
		return nil
	}
	// Only whitespace may follow the object.
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err == nil {
			return core.NewValidationError(nonFieldErrors, msgTrailingData)
		}
		return bodyError(err)
	}

	var verr core.ValidationError
	for name, m := range members {
		value, ok := raw[name]
		if !ok {
			continue
		}
		if err := m.target.UnmarshalJSON(value); err != nil {
			verr.Add(name, m.invalid)
		}
	}
	return verr.Err()
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return core.NewValidationError(nonFieldErrors, fmt.Sprintf("Request body exceeds %d bytes.", tooLarge.Limit))
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return core.NewValidationError(nonFieldErrors, fmt.Sprintf("Invalid data. Expected a dictionary, but got %s.", typeErr.Value))
	}
	return core.NewValidationError(nonFieldErrors, "JSON parse error - "+err.Error())
}

// pathID parses the {id} path segment. An id that is not a UUID cannot name
// any entity, so it is reported as not found.
func pathID(r *http.Request, entity string) (uuid.UUID, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, core.NewNotFound(entity, raw)
	}
	return id, nil
}

// expenseFilters reads the list filters from the query string. categories
// may be repeated and each value may hold comma-separated ids.
func expenseFilters(q url.Values) core.ExpenseFilters {
	return core.ExpenseFilters{
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		MinValue:   q.Get("min_value"),
		MaxValue:   q.Get("max_value"),
		Categories: q["categories"],
	}
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
