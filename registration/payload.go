package registration

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"strings"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/validation"
)

// Payload is the registration request in the backend's field names. The
// country code is collected by the form but not sent.
type Payload struct {
	Username       string
	Email          string
	Phone          string
	FirstName      string
	LastName       string
	BirthDate      string
	Password       string
	Password2      string
	Address        string
	ProfilePicture *validation.File
}

// PayloadField is one text field in wire order.
type PayloadField struct {
	Name  string
	Value string
}

// BuildPayload projects form values onto the wire contract.
func BuildPayload(v Values) Payload {
	return Payload{
		Username:       usernameFromEmail(v.Email),
		Email:          v.Email,
		Phone:          v.PhoneNumber,
		FirstName:      v.FirstName,
		LastName:       v.LastName,
		BirthDate:      v.BirthDate,
		Password:       v.Password,
		Password2:      v.ConfirmPassword,
		Address:        v.Address,
		ProfilePicture: v.ProfileImage,
	}
}

// usernameFromEmail is the part of the address before the first "@".
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Fields lists the text fields in the order they are written.
func (p Payload) Fields() []PayloadField {
	return []PayloadField{
		{Name: "username", Value: p.Username},
		{Name: "email", Value: p.Email},
		{Name: "phone", Value: p.Phone},
		{Name: "first_name", Value: p.FirstName},
		{Name: "last_name", Value: p.LastName},
		{Name: "birth_date", Value: p.BirthDate},
		{Name: "password", Value: p.Password},
		{Name: "password2", Value: p.Password2},
		{Name: "address", Value: p.Address},
	}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode renders the payload as multipart/form-data, returning the body and
// its Content-Type header value.
func (p Payload) Encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, f := range p.Fields() {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", apperrors.Wrapf(err, "[registration Encode] %s", f.Name)
		}
	}

	if file := p.ProfilePicture; file != nil {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			`form-data; name="profile_picture"; filename="`+quoteEscaper.Replace(file.Filename)+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", apperrors.Wrapf(err, "[registration Encode] profile_picture")
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", apperrors.Wrapf(err, "[registration Encode] profile_picture")
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", apperrors.Wrapf(err, "[registration Encode] close")
	}
	return body, w.FormDataContentType(), nil
}
