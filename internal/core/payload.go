package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is a JSON payload member that remembers whether it was present and
// whether it was an explicit null. Absent members leave the zero Field.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Of returns a Field holding v.
func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a Field holding an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Null = true
		return nil
	}
	return json.Unmarshal(b, &f.Value)
}

// Present reports whether the member carries a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// DecimalText holds a decimal as written by the client. Both JSON numbers and
// JSON strings are accepted so that 42.5 and "42.50" decode alike.
type DecimalText string

func (d *DecimalText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = DecimalText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decimal: %w", err)
	}
	*d = DecimalText(n.String())
	return nil
}

// IDList is a list of identifiers. It decodes from a JSON array of strings or
// from a single comma-separated string.
type IDList []string

func (l *IDList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = SplitIDs(s)
		return nil
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*l = ids
	return nil
}

// SplitIDs splits comma-separated identifiers, dropping blanks.
func SplitIDs(values ...string) []string {
	var ids []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
	}
	return ids
}

// CategoryPayload is the writable field set of a category.
type CategoryPayload struct {
	Name Field[string] `json:"name"`
}

// ExpensePayload is the writable field set of an expense. On update only the
// members that are present are applied; a present categories member replaces
// the whole association set.
type ExpensePayload struct {
	Value       Field[DecimalText] `json:"value"`
	SpentAt     Field[string]      `json:"spent_at"`
	Description Field[string]      `json:"description"`
	Categories  Field[IDList]      `json:"categories"`
}
