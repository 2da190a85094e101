package registration

import "github.com/jrsteele09/rafiq-client/validation"

const minPasswordLength = 8

// Schema is the sign-up validation schema.
func Schema() validation.Schema[Values] {
	firstName := func(v Values) string { return v.FirstName }
	lastName := func(v Values) string { return v.LastName }
	email := func(v Values) string { return v.Email }
	phone := func(v Values) string { return v.PhoneNumber }
	countryCode := func(v Values) string { return v.CountryCode }
	birthDate := func(v Values) string { return v.BirthDate }
	password := func(v Values) string { return v.Password }
	confirm := func(v Values) string { return v.ConfirmPassword }
	image := func(v Values) *validation.File { return v.ProfileImage }

	const passwordLength = "Password should be of minimum 8 characters length"

	return validation.NewSchema(
		validation.FieldRules[Values]{Field: FieldFirstName, Required: true, Rules: []validation.Rule[Values]{
			validation.Required(firstName, "First name is required"),
		}},
		validation.FieldRules[Values]{Field: FieldLastName, Required: true, Rules: []validation.Rule[Values]{
			validation.Required(lastName, "Last name is required"),
		}},
		validation.FieldRules[Values]{Field: FieldEmail, Required: true, Rules: []validation.Rule[Values]{
			validation.Required(email, "Email is required"),
			validation.Email(email, "Enter a valid email"),
		}},
		validation.FieldRules[Values]{Field: FieldPhoneNumber, Required: true, Rules: []validation.Rule[Values]{
			validation.Required(phone, "Phone number is required"),
			validation.Digits(phone, "Phone number must contain only digits"),
			validation.MinLength(phone, 7, "Phone number must be at least 7 digits"),
		}},
		validation.FieldRules[Values]{Field: FieldCountryCode, Required: true, Rules: []validation.Rule[Values]{
			validation.Required(countryCode, "Country code is required"),
		}},
		validation.FieldRules[Values]{Field: FieldBirthDate, Required: true, Rules: []validation.Rule[Values]{
			validation.Required(birthDate, "Birth date is required"),
			validation.ValidDate(birthDate, "Enter a valid birth date"),
			validation.NotAfterToday(birthDate, "Birth date cannot be in the future"),
		}},
		validation.FieldRules[Values]{Field: FieldPassword, Required: true, Rules: []validation.Rule[Values]{
			validation.Required(password, "Password is required"),
			validation.MinLength(password, minPasswordLength, passwordLength),
		}},
		validation.FieldRules[Values]{Field: FieldConfirmPassword, Required: true, Rules: []validation.Rule[Values]{
			validation.Required(confirm, "Confirm password is required"),
			validation.MinLength(confirm, minPasswordLength, passwordLength),
			validation.Equals(confirm, password, "Passwords must match"),
		}},
		validation.FieldRules[Values]{Field: FieldProfileImage, Rules: []validation.Rule[Values]{
			validation.ContentTypeIn(image, "Only JPEG and PNG images are allowed", "image/jpeg", "image/png"),
		}},
	)
}
