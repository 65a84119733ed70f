package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"expenses/internal/core"
)

const maxNameLength = 255

const (
	msgMaxDecimals = "Ensure that there are no more than 2 decimal places."
	msgMaxDigits   = "Ensure that there are no more than 10 digits in total."
	msgPositive    = "Ensure this value is greater than 0."
)

// presence checks a payload member against the required/null rules and
// reports whether it carries a value to validate further.
func presence[T any](verr *core.ValidationError, field string, f core.Field[T], required bool) bool {
	switch {
	case !f.Set:
		if required {
			verr.Add(field, core.MsgRequired)
		}
		return false
	case f.Null:
		verr.Add(field, core.MsgNull)
		return false
	}
	return true
}

func validateName(verr *core.ValidationError, f core.Field[string], required bool) (string, bool) {
	if !presence(verr, "name", f, required) {
		return "", false
	}
	name := strings.TrimSpace(f.Value)
	switch {
	case name == "":
		verr.Add("name", core.MsgBlank)
		return "", false
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.Add("name", fmt.Sprintf(core.MsgTooLong, maxNameLength))
		return "", false
	}
	return name, true
}

func validateValue(verr *core.ValidationError, f core.Field[core.DecimalText], required bool) (core.Money, bool) {
	if !presence(verr, "value", f, required) {
		return core.Money{}, false
	}
	m, err := core.ParseMoney(string(f.Value))
	switch {
	case err == nil:
		return m, true
	case errors.Is(err, core.ErrAmountScale):
		verr.Add("value", msgMaxDecimals)
	case errors.Is(err, core.ErrAmountTooLarge):
		verr.Add("value", msgMaxDigits)
	case errors.Is(err, core.ErrAmountPositive):
		verr.Add("value", msgPositive)
	default:
		verr.Add("value", core.MsgNotNumber)
	}
	return core.Money{}, false
}

func validateSpentAt(verr *core.ValidationError, f core.Field[string], required bool) (time.Time, bool) {
	if !presence(verr, "spent_at", f, required) {
		return time.Time{}, false
	}
	t, _, err := core.ParseTimestamp(f.Value)
	if err != nil {
		verr.Add("spent_at", core.MsgDatetime)
		return time.Time{}, false
	}
	return t.Truncate(time.Microsecond), true
}

// categoryIDs parses the requested category ids. Malformed ids are dropped
// since they cannot name an owned category; duplicates collapse.
func categoryIDs(verr *core.ValidationError, f core.Field[core.IDList]) ([]uuid.UUID, bool) {
	if !presence(verr, "categories", f, false) {
		return nil, false
	}
	seen := make(map[uuid.UUID]struct{}, len(f.Value))
	ids := make([]uuid.UUID, 0, len(f.Value))
	for _, raw := range f.Value {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, true
}
