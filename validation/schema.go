// Package validation evaluates ordered, per-field rule schemas against a typed
// values record.
//
// A schema lists fields in evaluation order. Each field carries an ordered
// list of rules and stops at its first failing rule, so a field reports at
// most one message. Fields are independent of one another; a rule may still
// read other fields of the record (for example a confirmation that must equal
// a password) or the wall clock passed to Validate.
//
// Format rules treat an empty value as valid. Presence is the job of Required,
// which a schema lists first for mandatory fields.
package validation

import "time"

// Field identifies a form field.
type Field string

// Errors maps each failing field to its message. Fields that pass are absent.
type Errors map[Field]string

// Has reports whether f currently fails.
func (e Errors) Has(f Field) bool {
	_, ok := e[f]
	return ok
}

// Rule is one predicate over the whole record and the message reported when
// it does not hold.
type Rule[V any] struct {
	Message string
	Valid   func(v V, now time.Time) bool
}

// FieldRules binds a field to its ordered rules. Required marks the field as
// mandatory for form validity even before any rule has run.
type FieldRules[V any] struct {
	Field    Field
	Required bool
	Rules    []Rule[V]
}

// Schema is an ordered set of FieldRules.
type Schema[V any] struct {
	fields []FieldRules[V]
}

// NewSchema builds a schema that evaluates fields in the given order.
func NewSchema[V any](fields ...FieldRules[V]) Schema[V] {
	return Schema[V]{fields: fields}
}

// Fields returns the schema's fields in evaluation order.
func (s Schema[V]) Fields() []Field {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		out = append(out, f.Field)
	}
	return out
}

// RequiredFields returns the fields marked Required, in evaluation order.
func (s Schema[V]) RequiredFields() []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Required {
			out = append(out, f.Field)
		}
	}
	return out
}

// Declares reports whether the schema has rules for f.
func (s Schema[V]) Declares(f Field) bool {
	for _, fr := range s.fields {
		if fr.Field == f {
			return true
		}
	}
	return false
}

// Validate returns a fresh Errors for v. A rule without a predicate is skipped.
func (s Schema[V]) Validate(v V, now time.Time) Errors {
	errs := Errors{}
	for _, fr := range s.fields {
		for _, rule := range fr.Rules {
			if rule.Valid == nil {
				continue
			}
			if !rule.Valid(v, now) {
				errs[fr.Field] = rule.Message
				break
			}
		}
	}
	return errs
}
