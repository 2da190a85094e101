package registration_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/rafiq-client/form"
	"github.com/jrsteele09/rafiq-client/internal/backendfake"
	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/registration"
	"github.com/jrsteele09/rafiq-client/validation"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func anaLee() map[validation.Field]any {
	return map[validation.Field]any{
		registration.FieldFirstName:       "Ana",
		registration.FieldLastName:        "Lee",
		registration.FieldEmail:           "ana@x.com",
		registration.FieldPhoneNumber:     "5551234",
		registration.FieldCountryCode:     "+1",
		registration.FieldBirthDate:       "2000-01-01",
		registration.FieldPassword:        "password1",
		registration.FieldConfirmPassword: "password1",
	}
}

func newForm(t *testing.T, baseURL string, onConfirm func()) *form.Controller[registration.Values] {
	t.Helper()
	pipeline := registration.NewPipeline(registration.NewClient(baseURL), zerolog.Nop())
	return registration.NewForm(pipeline, onConfirm,
		form.WithClock[registration.Values](func() time.Time { return testNow }))
}

func fill(t *testing.T, c *form.Controller[registration.Values], values map[validation.Field]any) {
	t.Helper()
	for f, v := range values {
		require.NoError(t, c.SetFieldValue(f, v))
	}
}

func TestValues_Record(t *testing.T) {
	v := registration.Defaults()
	require.Equal(t, registration.DefaultCountryCode, v.CountryCode)
	require.True(t, v.Present(registration.FieldCountryCode))
	require.False(t, v.Present(registration.FieldProfileImage))

	t.Run("profile image takes a file", func(t *testing.T) {
		file := &validation.File{Filename: "me.png", ContentType: "image/png"}
		next, err := v.With(registration.FieldProfileImage, file)
		require.NoError(t, err)
		require.Same(t, file, next.ProfileImage)
		require.True(t, next.Present(registration.FieldProfileImage))

		cleared, err := next.With(registration.FieldProfileImage, nil)
		require.NoError(t, err)
		require.Nil(t, cleared.ProfileImage)
	})

	t.Run("type mismatches rejected", func(t *testing.T) {
		_, err := v.With(registration.FieldProfileImage, "me.png")
		require.ErrorIs(t, err, apperrors.ErrFieldType)
		_, err = v.With(registration.FieldEmail, 42)
		require.ErrorIs(t, err, apperrors.ErrFieldType)
		_, err = v.With("nickname", "x")
		require.ErrorIs(t, err, apperrors.ErrUnknownField)
	})
}

func TestSchema(t *testing.T) {
	schema := registration.Schema()
	valid := registration.Defaults()
	for f, val := range anaLee() {
		var err error
		valid, err = valid.With(f, val)
		require.NoError(t, err)
	}
	require.Empty(t, schema.Validate(valid, testNow))

	t.Run("required messages", func(t *testing.T) {
		errs := schema.Validate(registration.Values{}, testNow)
		require.Equal(t, "First name is required", errs[registration.FieldFirstName])
		require.Equal(t, "Last name is required", errs[registration.FieldLastName])
		require.Equal(t, "Email is required", errs[registration.FieldEmail])
		require.Equal(t, "Phone number is required", errs[registration.FieldPhoneNumber])
		require.Equal(t, "Country code is required", errs[registration.FieldCountryCode])
		require.Equal(t, "Birth date is required", errs[registration.FieldBirthDate])
		require.Equal(t, "Password is required", errs[registration.FieldPassword])
		require.Equal(t, "Confirm password is required", errs[registration.FieldConfirmPassword])
		require.False(t, errs.Has(registration.FieldProfileImage))
		require.False(t, errs.Has(registration.FieldAddress))
	})

	t.Run("short passwords fail length before match", func(t *testing.T) {
		v := valid
		v.Password, v.ConfirmPassword = "abc", "abc"
		errs := schema.Validate(v, testNow)
		require.Equal(t, "Password should be of minimum 8 characters length", errs[registration.FieldPassword])
		require.Equal(t, "Password should be of minimum 8 characters length", errs[registration.FieldConfirmPassword])

		v.ConfirmPassword = "password2"
		v.Password = "password1"
		errs = schema.Validate(v, testNow)
		require.Equal(t, "Passwords must match", errs[registration.FieldConfirmPassword])
		require.False(t, errs.Has(registration.FieldPassword))
	})

	t.Run("birth date tomorrow", func(t *testing.T) {
		v := valid
		v.BirthDate = testNow.AddDate(0, 0, 1).Format(validation.DateLayout)
		errs := schema.Validate(v, testNow)
		require.Equal(t, "Birth date cannot be in the future", errs[registration.FieldBirthDate])
		require.Len(t, errs, 1)
	})

	t.Run("phone number", func(t *testing.T) {
		v := valid
		v.PhoneNumber = "555-1234"
		require.Equal(t, "Phone number must contain only digits", schema.Validate(v, testNow)[registration.FieldPhoneNumber])
		v.PhoneNumber = "555"
		require.Equal(t, "Phone number must be at least 7 digits", schema.Validate(v, testNow)[registration.FieldPhoneNumber])
	})

	t.Run("email format", func(t *testing.T) {
		v := valid
		v.Email = "ana.x.com"
		require.Equal(t, "Enter a valid email", schema.Validate(v, testNow)[registration.FieldEmail])
	})

	t.Run("profile image type", func(t *testing.T) {
		tests := []struct {
			contentType string
			wantErr     bool
		}{
			{contentType: "text/plain", wantErr: true},
			{contentType: "image/gif", wantErr: true},
			{contentType: "image/png"},
			{contentType: "image/jpeg"},
		}
		for _, tt := range tests {
			t.Run(tt.contentType, func(t *testing.T) {
				v := valid
				v.ProfileImage = &validation.File{Filename: "f", ContentType: tt.contentType}
				errs := schema.Validate(v, testNow)
				if tt.wantErr {
					require.Equal(t, "Only JPEG and PNG images are allowed", errs[registration.FieldProfileImage])
					return
				}
				require.False(t, errs.Has(registration.FieldProfileImage))
			})
		}
	})
}

func TestBuildPayload(t *testing.T) {
	p := registration.BuildPayload(registration.Values{
		FirstName:       "Ana",
		LastName:        "Lee",
		Email:           "ana@x.com",
		PhoneNumber:     "5551234",
		CountryCode:     "+1",
		BirthDate:       "2000-01-01",
		Password:        "password1",
		ConfirmPassword: "password1",
	})
	require.Equal(t, []registration.PayloadField{
		{Name: "username", Value: "ana"},
		{Name: "email", Value: "ana@x.com"},
		{Name: "phone", Value: "5551234"},
		{Name: "first_name", Value: "Ana"},
		{Name: "last_name", Value: "Lee"},
		{Name: "birth_date", Value: "2000-01-01"},
		{Name: "password", Value: "password1"},
		{Name: "password2", Value: "password1"},
		{Name: "address", Value: ""},
	}, p.Fields())
	require.Nil(t, p.ProfilePicture)

	t.Run("username without at sign is the whole email", func(t *testing.T) {
		require.Equal(t, "ana", registration.BuildPayload(registration.Values{Email: "ana"}).Username)
	})
}

func TestForm_Submit(t *testing.T) {
	t.Run("sends multipart payload and resets", func(t *testing.T) {
		backend, srv := backendfake.NewServer(t, "")
		confirmed := 0
		c := newForm(t, srv.URL, func() { confirmed++ })
		fill(t, c, anaLee())
		image := &validation.File{Filename: "ana.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
		require.NoError(t, c.SetFieldValue(registration.FieldProfileImage, image))
		require.True(t, c.IsValid())

		require.NoError(t, c.Submit(context.Background()))

		regs := backend.Registrations()
		require.Len(t, regs, 1)
		reg := regs[0]
		require.Equal(t, map[string]string{
			"username":   "ana",
			"email":      "ana@x.com",
			"phone":      "5551234",
			"first_name": "Ana",
			"last_name":  "Lee",
			"birth_date": "2000-01-01",
			"password":   "password1",
			"password2":  "password1",
			"address":    "",
		}, reg.Fields)
		require.NotContains(t, reg.Fields, "countryCode")
		require.Equal(t, []string{
			"username", "email", "phone", "first_name", "last_name",
			"birth_date", "password", "password2", "address", "profile_picture",
		}, reg.Order)
		require.NotNil(t, reg.File)
		require.Equal(t, "profile_picture", reg.File.Field)
		require.Equal(t, "ana.png", reg.File.Filename)
		require.Equal(t, "image/png", reg.File.ContentType)
		require.Equal(t, image.Data, reg.File.Data)

		require.Equal(t, 1, confirmed)
		require.Equal(t, registration.Defaults(), c.Values())
		require.Equal(t, form.StatusIdle, c.Status())
		require.False(t, c.Touched(registration.FieldEmail))
	})

	t.Run("invalid form sends nothing", func(t *testing.T) {
		backend, srv := backendfake.NewServer(t, "")
		c := newForm(t, srv.URL, nil)
		values := anaLee()
		values[registration.FieldConfirmPassword] = "password2"
		fill(t, c, values)

		err := c.Submit(context.Background())
		require.ErrorIs(t, err, apperrors.ErrFormInvalid)
		require.Empty(t, backend.Registrations())
		msg, ok := c.VisibleError(registration.FieldConfirmPassword)
		require.True(t, ok)
		require.Equal(t, "Passwords must match", msg)
	})

	t.Run("rejected registration keeps values", func(t *testing.T) {
		backend, srv := backendfake.NewServer(t, "")
		backend.SetRegisterStatus(http.StatusBadRequest)
		confirmed := 0
		c := newForm(t, srv.URL, func() { confirmed++ })
		fill(t, c, anaLee())
		before := c.Values()

		err := c.Submit(context.Background())
		require.ErrorIs(t, err, apperrors.ErrRegistrationFailed)
		require.Len(t, backend.Registrations(), 1)
		require.Equal(t, before, c.Values())
		require.Equal(t, form.StatusSettled, c.Status())
		require.False(t, c.IsSubmitting())
		require.Zero(t, confirmed)
		_, shown := c.Error(registration.FieldEmail)
		require.False(t, shown)
	})

	t.Run("double submit sends one request", func(t *testing.T) {
		backend, srv := backendfake.NewServer(t, "")
		started, release := backend.HoldRegistrations()
		defer release()
		c := newForm(t, srv.URL, nil)
		fill(t, c, anaLee())

		var wg sync.WaitGroup
		var firstErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			firstErr = c.Submit(context.Background())
		}()

		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("registration never reached the backend")
		}
		require.True(t, c.IsSubmitting())
		require.ErrorIs(t, c.Submit(context.Background()), apperrors.ErrSubmitInFlight)

		release()
		wg.Wait()
		require.NoError(t, firstErr)
		require.Len(t, backend.Registrations(), 1)
	})

	t.Run("unreachable backend", func(t *testing.T) {
		_, srv := backendfake.NewServer(t, "")
		url := srv.URL
		srv.Close()
		c := newForm(t, url, nil)
		fill(t, c, anaLee())

		err := c.Submit(context.Background())
		require.ErrorIs(t, err, apperrors.ErrRegistrationFailed)
		require.Equal(t, form.StatusSettled, c.Status())
	})
}
