// Package extract reads typed fields out of loosely-typed JSON objects.
//
// Every response parser in the client is a list of calls into this package,
// so the behavior for absent, null and wrong-typed fields is decided here:
//
//   - Required variants fail with *MissingFieldError when the key is absent
//     or null, and with *InvalidTypeError when the value cannot be coerced.
//   - Optional variants never fail on absence; they return the zero value
//     ("", false, 0, 0.0, nil) for absent, null and wrong-typed values.
//     OptionalTime is the exception: a present but unparsable timestamp is
//     an *InvalidTypeError.
//   - Enum variants come in three strengths: Enum (required, strict),
//     OptionalEnum (absent is nil, unknown is an error) and LenientEnum
//     (absent and unknown are both nil).
package extract

import (
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Object is a decoded JSON object.
type Object = map[string]any

// Kind describes how a raw JSON value is coerced to T.
type Kind[T any] struct {
	Name   string
	Coerce func(v any) (T, bool)
}

// Built-in kinds.
var (
	StringKind = Kind[string]{Name: "string", Coerce: coerceString}
	BoolKind   = Kind[bool]{Name: "bool", Coerce: coerceBool}
	IntKind    = Kind[int]{Name: "int", Coerce: coerceInt}
	FloatKind  = Kind[float64]{Name: "float", Coerce: coerceFloat}
	URLKind    = Kind[*url.URL]{Name: "url", Coerce: coerceURL}
	TimeKind   = Kind[time.Time]{Name: "date-time", Coerce: coerceTime}
	ObjectKind = Kind[Object]{Name: "object", Coerce: coerceObject}
	ArrayKind  = Kind[[]any]{Name: "array", Coerce: coerceArray}
)

func lookup(obj Object, key string) (any, bool) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Required returns obj[key] coerced by kind.
func Required[T any](obj Object, key string, kind Kind[T]) (T, error) {
	var zero T
	raw, ok := lookup(obj, key)
	if !ok {
		return zero, &MissingFieldError{Field: key}
	}
	v, ok := kind.Coerce(raw)
	if !ok {
		return zero, &InvalidTypeError{Field: key, Want: kind.Name, Value: raw}
	}
	return v, nil
}

// Optional returns obj[key] coerced by kind, or the zero value.
func Optional[T any](obj Object, key string, kind Kind[T]) T {
	v, _ := Lookup(obj, key, kind)
	return v
}

// Lookup is Optional that also reports whether a usable value was found.
func Lookup[T any](obj Object, key string, kind Kind[T]) (T, bool) {
	var zero T
	raw, ok := lookup(obj, key)
	if !ok {
		return zero, false
	}
	v, ok := kind.Coerce(raw)
	if !ok {
		return zero, false
	}
	return v, true
}

// String extracts a required string.
func String(obj Object, key string) (string, error) { return Required(obj, key, StringKind) }

// OptionalString extracts a string, defaulting to "".
func OptionalString(obj Object, key string) string { return Optional(obj, key, StringKind) }

// Bool extracts a required bool.
func Bool(obj Object, key string) (bool, error) { return Required(obj, key, BoolKind) }

// OptionalBool extracts a bool, defaulting to false.
func OptionalBool(obj Object, key string) bool { return Optional(obj, key, BoolKind) }

// Int extracts a required int.
func Int(obj Object, key string) (int, error) { return Required(obj, key, IntKind) }

// OptionalInt extracts an int, defaulting to 0.
func OptionalInt(obj Object, key string) int { return Optional(obj, key, IntKind) }

// Float extracts a required float.
func Float(obj Object, key string) (float64, error) { return Required(obj, key, FloatKind) }

// OptionalFloat extracts a float, defaulting to 0.0.
func OptionalFloat(obj Object, key string) float64 { return Optional(obj, key, FloatKind) }

// URL extracts a required absolute URL.
func URL(obj Object, key string) (*url.URL, error) { return Required(obj, key, URLKind) }

// OptionalURL extracts an absolute URL, defaulting to nil.
func OptionalURL(obj Object, key string) *url.URL { return Optional(obj, key, URLKind) }

// Time extracts a required timestamp.
func Time(obj Object, key string) (time.Time, error) { return Required(obj, key, TimeKind) }

// OptionalTime extracts a timestamp. Absent, null or blank yields nil; a
// value that is present but unparsable is an error.
func OptionalTime(obj Object, key string) (*time.Time, error) {
	raw, ok := lookup(obj, key)
	if !ok {
		return nil, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := Time(obj, key)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// OptionalArray extracts an array, defaulting to nil.
func OptionalArray(obj Object, key string) []any { return Optional(obj, key, ArrayKind) }

// AsObject reports whether v is a JSON object.
func AsObject(v any) (Object, bool) { return coerceObject(v) }

// ParseEnum maps value onto one of allowed.
func ParseEnum[E ~string](field, value string, allowed []E) (E, error) {
	for _, a := range allowed {
		if string(a) == value {
			return a, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", &InvalidEnumValueError{Field: field, Value: value, Allowed: names}
}

// Enum extracts a required member of allowed.
func Enum[E ~string](obj Object, key string, allowed []E) (E, error) {
	s, err := String(obj, key)
	if err != nil {
		return "", err
	}
	return ParseEnum(key, s, allowed)
}

// OptionalEnum extracts a member of allowed when the field is present.
// Absent or null yields nil; an unknown value is an error.
func OptionalEnum[E ~string](obj Object, key string, allowed []E) (*E, error) {
	if _, ok := lookup(obj, key); !ok {
		return nil, nil
	}
	e, err := Enum(obj, key, allowed)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// LenientEnum extracts a member of allowed, yielding nil for anything else.
func LenientEnum[E ~string](obj Object, key string, allowed []E) *E {
	s, ok := Lookup(obj, key, StringKind)
	if !ok {
		return nil
	}
	e, err := ParseEnum(key, s, allowed)
	if err != nil {
		return nil
	}
	return &e
}

// Timestamp layouts accepted by TimeKind, most specific first. Layouts
// without an offset are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an ISO-8601-like timestamp.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func coerceString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	}
	return "", false
}

func coerceBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "1", "true":
			return true, true
		case "0", "false":
			return false, true
		}
		return false, false
	}
	if n, ok := coerceInt(v); ok && (n == 0 || n == 1) {
		return n == 1, true
	}
	return false, false
}

func coerceInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// floatToInt accepts whole numbers within the range of int.
func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || f != math.Trunc(f) || f < math.MinInt || f >= -math.MinInt {
		return 0, false
	}
	return int(f), true
}

func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func coerceURL(v any) (*url.URL, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

func coerceTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	return ParseTime(s)
}

func coerceObject(v any) (Object, bool) {
	o, ok := v.(map[string]any)
	return o, ok
}

func coerceArray(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []map[string]any:
		out := make([]any, len(x))
		for i, o := range x {
			out[i] = o
		}
		return out, true
	}
	return nil, false
}
