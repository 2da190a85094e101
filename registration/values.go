// Package registration implements account sign-up: the form's values and
// schema, the projection onto the backend's field names, and the multipart
// submission.
package registration

import (
	"fmt"

	"github.com/jrsteele09/rafiq-client/form"
	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/validation"
)

// Sign-up form fields.
const (
	FieldFirstName       validation.Field = "firstName"
	FieldLastName        validation.Field = "lastName"
	FieldEmail           validation.Field = "email"
	FieldPhoneNumber     validation.Field = "phoneNumber"
	FieldCountryCode     validation.Field = "countryCode"
	FieldBirthDate       validation.Field = "birthDate"
	FieldPassword        validation.Field = "password"
	FieldConfirmPassword validation.Field = "confirmPassword"
	FieldAddress         validation.Field = "address"
	FieldProfileImage    validation.Field = "profileImage"
)

// DefaultCountryCode is preselected in the country code picker.
const DefaultCountryCode = "+1"

// CountryCode is one entry of the country code picker.
type CountryCode struct {
	Code  string
	Label string
}

// CountryCodes lists the picker's options in display order.
var CountryCodes = []CountryCode{
	{Code: "+20", Label: "EG"},
	{Code: "+1", Label: "US"},
	{Code: "+44", Label: "UK"},
	{Code: "+971", Label: "UAE"},
}

// Values is the sign-up form.
type Values struct {
	FirstName       string
	LastName        string
	Email           string
	PhoneNumber     string
	CountryCode     string
	BirthDate       string
	Password        string
	ConfirmPassword string
	Address         string
	ProfileImage    *validation.File
}

var _ form.Record[Values] = Values{}

// Defaults is the empty form.
func Defaults() Values {
	return Values{CountryCode: DefaultCountryCode}
}

func (v *Values) text(f validation.Field) (*string, bool) {
	switch f {
	case FieldFirstName:
		return &v.FirstName, true
	case FieldLastName:
		return &v.LastName, true
	case FieldEmail:
		return &v.Email, true
	case FieldPhoneNumber:
		return &v.PhoneNumber, true
	case FieldCountryCode:
		return &v.CountryCode, true
	case FieldBirthDate:
		return &v.BirthDate, true
	case FieldPassword:
		return &v.Password, true
	case FieldConfirmPassword:
		return &v.ConfirmPassword, true
	case FieldAddress:
		return &v.Address, true
	}
	return nil, false
}

// With sets a text field from a string, or the profile image from a
// *validation.File (nil clears it).
func (v Values) With(f validation.Field, value any) (Values, error) {
	if f == FieldProfileImage {
		switch file := value.(type) {
		case *validation.File:
			v.ProfileImage = file
		case nil:
			v.ProfileImage = nil
		default:
			return v, fmt.Errorf("%w: %s wants *validation.File, got %T", apperrors.ErrFieldType, f, value)
		}
		return v, nil
	}

	p, known := v.text(f)
	if !known {
		return v, fmt.Errorf("%w: %s", apperrors.ErrUnknownField, f)
	}
	s, ok := value.(string)
	if !ok {
		return v, fmt.Errorf("%w: %s wants string, got %T", apperrors.ErrFieldType, f, value)
	}
	*p = s
	return v, nil
}

func (v Values) Present(f validation.Field) bool {
	if f == FieldProfileImage {
		return v.ProfileImage != nil
	}
	p, known := v.text(f)
	return known && *p != ""
}
