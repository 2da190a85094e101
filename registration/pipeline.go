package registration

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/rafiq-client/form"
)

// Registrar sends a projected payload.
type Registrar interface {
	Register(ctx context.Context, p Payload) error
}

// Pipeline turns validated sign-up values into a registration request.
type Pipeline struct {
	registrar Registrar
	logger    zerolog.Logger
}

var _ form.Submitter[Values] = (*Pipeline)(nil)

func NewPipeline(registrar Registrar, logger zerolog.Logger) *Pipeline {
	return &Pipeline{registrar: registrar, logger: logger}
}

func (p *Pipeline) Submit(ctx context.Context, v Values) error {
	payload := BuildPayload(v)
	if err := p.registrar.Register(ctx, payload); err != nil {
		return err
	}
	p.logger.Info().Str("username", payload.Username).Msg("registration accepted")
	return nil
}

// NewForm builds the sign-up form. onConfirm runs after a successful
// registration has reset the form, e.g. to open the confirmation dialog.
func NewForm(p *Pipeline, onConfirm func(), opts ...form.Option[Values]) *form.Controller[Values] {
	if onConfirm != nil {
		opts = append(opts, form.WithOnSuccess[Values](onConfirm))
	}
	return form.New(Schema(), Defaults(), p, opts...)
}
