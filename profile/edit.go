package profile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/rafiq-client/form"
	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/sessions"
	"github.com/jrsteele09/rafiq-client/validation"
)

// Account settings fields, named as on the wire.
const (
	FieldFirstName      validation.Field = "first_name"
	FieldLastName       validation.Field = "last_name"
	FieldProfilePicture validation.Field = "profile_picture"
	FieldBio            validation.Field = "bio"
	FieldAddress        validation.Field = "address"
	FieldBirthDate      validation.Field = "birth_date"
	FieldPhone          validation.Field = "phone"
)

// EditValues is the account settings form. Every field is optional.
type EditValues struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture"`
	Bio            string `json:"bio"`
	Address        string `json:"address"`
	BirthDate      string `json:"birth_date"`
	Phone          string `json:"phone"`
}

var _ form.Record[EditValues] = EditValues{}

// EditValuesFromProfile seeds the form from the profile being edited.
func EditValuesFromProfile(p Profile) EditValues {
	return EditValues{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		ProfilePicture: p.ProfilePicture,
		Bio:            p.Bio,
		Address:        p.Address,
		BirthDate:      p.BirthDate,
		Phone:          p.Phone,
	}
}

func (v *EditValues) field(f validation.Field) (*string, bool) {
	switch f {
	case FieldFirstName:
		return &v.FirstName, true
	case FieldLastName:
		return &v.LastName, true
	case FieldProfilePicture:
		return &v.ProfilePicture, true
	case FieldBio:
		return &v.Bio, true
	case FieldAddress:
		return &v.Address, true
	case FieldBirthDate:
		return &v.BirthDate, true
	case FieldPhone:
		return &v.Phone, true
	}
	return nil, false
}

func (v EditValues) With(f validation.Field, value any) (EditValues, error) {
	s, ok := value.(string)
	if !ok {
		return v, fmt.Errorf("%w: %s wants string, got %T", apperrors.ErrFieldType, f, value)
	}
	p, known := v.field(f)
	if !known {
		return v, fmt.Errorf("%w: %s", apperrors.ErrUnknownField, f)
	}
	*p = s
	return v, nil
}

func (v EditValues) Present(f validation.Field) bool {
	p, known := v.field(f)
	return known && *p != ""
}

// EditSchema checks only the format of fields that were filled in.
func EditSchema() validation.Schema[EditValues] {
	picture := func(v EditValues) string { return v.ProfilePicture }
	birth := func(v EditValues) string { return v.BirthDate }
	phone := func(v EditValues) string { return v.Phone }

	return validation.NewSchema(
		validation.FieldRules[EditValues]{Field: FieldProfilePicture, Rules: []validation.Rule[EditValues]{
			validation.HTTPURL(picture, "Enter a valid image URL"),
		}},
		validation.FieldRules[EditValues]{Field: FieldBirthDate, Rules: []validation.Rule[EditValues]{
			validation.ValidDate(birth, "Enter a valid birth date"),
			validation.NotAfterToday(birth, "Birth date cannot be in the future"),
		}},
		validation.FieldRules[EditValues]{Field: FieldPhone, Rules: []validation.Rule[EditValues]{
			validation.Digits(phone, "Phone number must contain only digits"),
		}},
	)
}

// ProfileUpdater is the network half of an Updater.
type ProfileUpdater interface {
	Update(ctx context.Context, token string, values EditValues) (*Profile, error)
}

// Updater submits account settings for the signed-in user and refreshes the
// session's cached profile image on success.
type Updater struct {
	client ProfileUpdater
	store  *sessions.Store
	logger zerolog.Logger
}

var _ form.Submitter[EditValues] = (*Updater)(nil)

func NewUpdater(client ProfileUpdater, store *sessions.Store, logger zerolog.Logger) *Updater {
	return &Updater{client: client, store: store, logger: logger}
}

func (u *Updater) Submit(ctx context.Context, values EditValues) error {
	_, err := u.Save(ctx, values)
	return err
}

// Save sends the edits and returns the profile as stored by the backend. When
// the backend answers without a body the submitted values stand in for it.
func (u *Updater) Save(ctx context.Context, values EditValues) (Profile, error) {
	token, ok := u.store.Token()
	if !ok || !sessions.IsAuthenticated(&token) {
		return Profile{}, apperrors.Wrapf(apperrors.ErrNotAuthenticated, "[profile Updater.Save]")
	}

	updated, err := u.client.Update(ctx, token, values)
	if err != nil {
		return Profile{}, apperrors.Wrapf(err, "[profile Updater.Save]")
	}
	saved := values.applyTo(Profile{})
	if updated != nil {
		saved = *updated
	}

	picture := values.ProfilePicture
	if saved.ProfilePicture != "" {
		picture = saved.ProfilePicture
	}
	if picture != "" {
		u.store.SetProfileImage(picture)
	}
	u.logger.Debug().Str("subject", u.store.Session().Subject()).Msg("profile updated")
	return saved, nil
}

func (v EditValues) applyTo(p Profile) Profile {
	p.FirstName = v.FirstName
	p.LastName = v.LastName
	p.ProfilePicture = v.ProfilePicture
	p.Bio = v.Bio
	p.Address = v.Address
	p.BirthDate = v.BirthDate
	p.Phone = v.Phone
	return p
}

// NewEditForm builds the account settings form seeded from p. Reset restores
// p's values, which is what cancelling the dialog does. After a successful
// save the form is seeded from the saved profile instead.
func NewEditForm(updater *Updater, p Profile, opts ...form.Option[EditValues]) *form.Controller[EditValues] {
	var c *form.Controller[EditValues]
	save := form.SubmitterFunc[EditValues](func(ctx context.Context, values EditValues) error {
		saved, err := updater.Save(ctx, values)
		if err != nil {
			return err
		}
		c.SetDefaults(EditValuesFromProfile(saved))
		return nil
	})
	c = form.New(EditSchema(), EditValuesFromProfile(p), save, opts...)
	return c
}
