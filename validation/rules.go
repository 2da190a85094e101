package validation

import (
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire and input format for calendar dates.
const DateLayout = "2006-01-02"

// validate is safe for concurrent use and caches parsed tags.
var validate = validator.New()

// satisfies reports whether s passes the validator tag.
func satisfies(s, tag string) bool {
	return validate.Var(s, tag) == nil
}

// File is an attachment picked by the user.
type File struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Required fails when the value is the empty string.
func Required[V any](get func(V) string, message string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, _ time.Time) bool {
			return satisfies(get(v), "required")
		},
	}
}

// Email fails when the value is not a plausible address.
func Email[V any](get func(V) string, message string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, _ time.Time) bool {
			s := get(v)
			return s == "" || satisfies(s, "email")
		},
	}
}

// Digits fails when the value contains anything other than 0-9.
func Digits[V any](get func(V) string, message string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, _ time.Time) bool {
			s := get(v)
			return s == "" || satisfies(s, "number")
		},
	}
}

// MinLength fails when the value has fewer than n characters.
func MinLength[V any](get func(V) string, n int, message string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, _ time.Time) bool {
			s := get(v)
			return s == "" || satisfies(s, "min="+strconv.Itoa(n))
		},
	}
}

// ValidDate fails when the value is not a DateLayout date.
func ValidDate[V any](get func(V) string, message string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, _ time.Time) bool {
			s := get(v)
			return s == "" || satisfies(s, "datetime="+DateLayout)
		},
	}
}

// NotAfterToday fails when the date is strictly after the calendar day of now.
// Unparseable values pass; pair it with ValidDate.
func NotAfterToday[V any](get func(V) string, message string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, now time.Time) bool {
			s := get(v)
			if s == "" {
				return true
			}
			d, err := time.ParseInLocation(DateLayout, s, now.Location())
			if err != nil {
				return true
			}
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			return !d.After(today)
		},
	}
}

// Equals fails when the value differs from another field's value.
func Equals[V any](get, other func(V) string, message string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, _ time.Time) bool {
			return get(v) == other(v)
		},
	}
}

// ContentTypeIn fails when a file is attached and its media type is not one
// of allowed. No file is valid.
func ContentTypeIn[V any](get func(V) *File, message string, allowed ...string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, _ time.Time) bool {
			f := get(v)
			if f == nil {
				return true
			}
			ct := strings.ToLower(strings.TrimSpace(f.ContentType))
			if mt, _, err := mime.ParseMediaType(ct); err == nil {
				ct = mt
			}
			return ct != "" && satisfies(ct, "oneof="+strings.Join(allowed, " "))
		},
	}
}

// HTTPURL fails when the value is not an absolute http or https URL.
func HTTPURL[V any](get func(V) string, message string) Rule[V] {
	return Rule[V]{
		Message: message,
		Valid: func(v V, _ time.Time) bool {
			s := get(v)
			return s == "" || satisfies(s, "http_url")
		},
	}
}
