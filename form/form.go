// Package form owns the interactive lifecycle of a typed form: values,
// touched fields, validation errors and the submission state machine.
package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/validation"
)

// Record is a typed values record. With returns a copy of the record with one
// field replaced and rejects unknown fields or values of the wrong type.
// Present reports whether a field holds a non-empty value.
type Record[V any] interface {
	With(field validation.Field, value any) (V, error)
	Present(field validation.Field) bool
}

// Submitter performs the network side of a submission.
type Submitter[V any] interface {
	Submit(ctx context.Context, values V) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc[V any] func(ctx context.Context, values V) error

func (f SubmitterFunc[V]) Submit(ctx context.Context, values V) error {
	return f(ctx, values)
}

// Status describes where the form is in its submission lifecycle.
type Status int

const (
	StatusIdle Status = iota
	StatusValidating
	StatusSubmitting
	// StatusSettled follows a failed submission; the values are kept and the
	// form may be submitted again.
	StatusSettled
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValidating:
		return "validating"
	case StatusSubmitting:
		return "submitting"
	case StatusSettled:
		return "settled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is a point-in-time copy of a controller.
type State[V any] struct {
	Values  V
	Touched map[validation.Field]bool
	Errors  validation.Errors
	Status  Status
}

// Controller holds the state of one form instance. It is safe for concurrent
// use; the submitting status is the only double-submit guard.
type Controller[V Record[V]] struct {
	mu        sync.Mutex
	schema    validation.Schema[V]
	defaults  V
	values    V
	touched   map[validation.Field]struct{}
	errors    validation.Errors
	status    Status
	submitter Submitter[V]
	now       func() time.Time
	onSuccess []func()
	logger    zerolog.Logger
}

type Option[V Record[V]] func(*Controller[V])

// WithClock overrides the wall clock handed to date rules.
func WithClock[V Record[V]](now func() time.Time) Option[V] {
	return func(c *Controller[V]) {
		c.now = now
	}
}

// WithOnSuccess registers a callback run after a successful submission and
// the reset that follows it. Callbacks run in registration order.
func WithOnSuccess[V Record[V]](fn func()) Option[V] {
	return func(c *Controller[V]) {
		if fn != nil {
			c.onSuccess = append(c.onSuccess, fn)
		}
	}
}

func WithLogger[V Record[V]](logger zerolog.Logger) Option[V] {
	return func(c *Controller[V]) {
		c.logger = logger
	}
}

// New creates a controller starting from defaults.
func New[V Record[V]](schema validation.Schema[V], defaults V, submitter Submitter[V], opts ...Option[V]) *Controller[V] {
	c := &Controller[V]{
		schema:    schema,
		defaults:  defaults,
		values:    defaults,
		touched:   make(map[validation.Field]struct{}),
		errors:    validation.Errors{},
		status:    StatusIdle,
		submitter: submitter,
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetFieldValue replaces one value and revalidates the whole record.
func (c *Controller[V]) SetFieldValue(field validation.Field, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.values.With(field, value)
	if err != nil {
		return apperrors.Wrapf(err, "[form SetFieldValue] %s", field)
	}
	c.values = next

	prev := c.status
	c.status = StatusValidating
	c.errors = c.schema.Validate(c.values, c.now())
	switch prev {
	case StatusSubmitting:
		c.status = StatusSubmitting
	default:
		c.status = StatusIdle
	}
	return nil
}

// MarkTouched records that the user has left a field. Errors for a field are
// only surfaced once it is touched.
func (c *Controller[V]) MarkTouched(field validation.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched[field] = struct{}{}
}

// Touched reports whether field has been marked.
func (c *Controller[V]) Touched(field validation.Field) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.touched[field]
	return ok
}

// Error returns the current error for field, touched or not.
func (c *Controller[V]) Error(field validation.Field) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.errors[field]
	return msg, ok
}

// VisibleError returns the error to display next to field.
func (c *Controller[V]) VisibleError(field validation.Field) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, touched := c.touched[field]; !touched {
		return "", false
	}
	msg, ok := c.errors[field]
	return msg, ok
}

// Values returns a copy of the current values.
func (c *Controller[V]) Values() V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values
}

// IsValid is true when no field fails and every required field has a value.
func (c *Controller[V]) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isValidLocked()
}

func (c *Controller[V]) isValidLocked() bool {
	if len(c.errors) > 0 {
		return false
	}
	for _, f := range c.schema.RequiredFields() {
		if !c.values.Present(f) {
			return false
		}
	}
	return true
}

// IsSubmitting reports whether a submission is in flight.
func (c *Controller[V]) IsSubmitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status == StatusSubmitting
}

func (c *Controller[V]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Snapshot copies the whole state.
func (c *Controller[V]) Snapshot() State[V] {
	c.mu.Lock()
	defer c.mu.Unlock()

	touched := make(map[validation.Field]bool, len(c.touched))
	for f := range c.touched {
		touched[f] = true
	}
	errs := make(validation.Errors, len(c.errors))
	for f, msg := range c.errors {
		errs[f] = msg
	}
	return State[V]{Values: c.values, Touched: touched, Errors: errs, Status: c.status}
}

// Submit validates the values and hands them to the submitter. It returns
// ErrSubmitInFlight or ErrFormInvalid without side effects on the network
// when a submission is running or the form is not valid. A submitter error is
// returned to the caller but is never written into the form's errors. Submit
// blocks until the submitter returns.
func (c *Controller[V]) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusSubmitting {
		c.mu.Unlock()
		return apperrors.ErrSubmitInFlight
	}

	prev := c.status
	c.status = StatusValidating
	c.errors = c.schema.Validate(c.values, c.now())
	for _, f := range c.schema.Fields() {
		c.touched[f] = struct{}{}
	}
	if !c.isValidLocked() {
		c.status = prev
		c.mu.Unlock()
		return apperrors.ErrFormInvalid
	}

	c.status = StatusSubmitting
	values := c.values
	c.mu.Unlock()

	err := c.submitter.Submit(ctx, values)

	c.mu.Lock()
	if err != nil {
		c.status = StatusSettled
		c.mu.Unlock()
		c.logger.Warn().Err(err).Msg("form submission failed")
		return apperrors.Wrapf(err, "[form Submit]")
	}
	c.resetLocked()
	c.status = StatusIdle
	callbacks := append([]func(){}, c.onSuccess...)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Reset restores the defaults and forgets touched fields and errors. A
// submission in flight keeps the form submitting.
func (c *Controller[V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	if c.status != StatusSubmitting {
		c.status = StatusIdle
	}
}

// SetDefaults replaces the values Reset restores. Current values are kept.
func (c *Controller[V]) SetDefaults(defaults V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults = defaults
}

func (c *Controller[V]) resetLocked() {
	c.values = c.defaults
	c.touched = make(map[validation.Field]struct{})
	c.errors = validation.Errors{}
}
