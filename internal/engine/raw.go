package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tartampluch/birthdayd/internal/config"
)

// rawKind tags the shape of a stored birthday value.
type rawKind int

const (
	rawEmpty rawKind = iota
	rawString
	rawList
	rawObject
)

// RawValue is the untyped per-user birthday value as stored by the profile
// system. Profile plugins persist the same field as a plain string, a list
// whose first element is the date, or an object carrying a date property,
// so all three shapes are modeled as explicit cases.
type RawValue struct {
	kind     rawKind
	str      string
	list     []string
	fields   map[string]string
	stringer fmt.Stringer
}

// RawString wraps a plain date string.
func RawString(s string) RawValue {
	return RawValue{kind: rawString, str: s}
}

// RawList wraps a positional container; the first element is taken as the date.
func RawList(values ...string) RawValue {
	return RawValue{kind: rawList, list: values}
}

// RawObject wraps a keyed container. The "date" key is preferred; when absent,
// str falls back to the object's string conversion (may be nil).
func RawObject(fields map[string]string, stringer fmt.Stringer) RawValue {
	return RawValue{kind: rawObject, fields: fields, stringer: stringer}
}

// IsEmpty reports whether the value carries no data at all.
func (r RawValue) IsEmpty() bool {
	switch r.kind {
	case rawString:
		return strings.TrimSpace(r.str) == ""
	case rawList:
		return len(r.list) == 0
	case rawObject:
		return len(r.fields) == 0 && r.stringer == nil
	default:
		return true
	}
}

// extract resolves the tagged variant to the underlying date string.
func (r RawValue) extract() (string, error) {
	switch r.kind {
	case rawString:
		return r.str, nil
	case rawList:
		if len(r.list) == 0 {
			return "", errors.New(config.ErrDateShape)
		}
		return r.list[0], nil
	case rawObject:
		if d, ok := r.fields["date"]; ok {
			return d, nil
		}
		if r.stringer != nil {
			return r.stringer.String(), nil
		}
		return "", errors.New(config.ErrDateShape)
	default:
		return "", errors.New(config.ErrDateShape)
	}
}
