package registration

import (
	"context"
	"encoding/base64"

	"github.com/jrsteele09/rafiq-client/form"
	"github.com/jrsteele09/rafiq-client/validation"
)

// PreviewURL renders file as a data URL for display next to the picker.
func PreviewURL(file *validation.File) string {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)
}

// AttachProfileImage sets the profile image on c and renders its preview off
// the caller's goroutine. The channel yields one URL and is then closed; it
// closes without a value when ctx ends first. A nil file clears the image and
// yields an empty preview.
func AttachProfileImage(ctx context.Context, c *form.Controller[Values], file *validation.File) (<-chan string, error) {
	if err := c.SetFieldValue(FieldProfileImage, file); err != nil {
		return nil, err
	}

	preview := make(chan string, 1)
	go func() {
		defer close(preview)
		url := ""
		if file != nil {
			url = PreviewURL(file)
		}
		if ctx.Err() != nil {
			return
		}
		preview <- url
	}()
	return preview, nil
}
