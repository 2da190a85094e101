package registration

import (
	"context"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
)

// RegisterPath is the sign-up endpoint relative to the base URL.
const RegisterPath = "/account/register/"

// Client posts registrations to the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{baseURL: baseURL, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register sends one multipart POST. Any non-2xx answer is
// ErrRegistrationFailed; the response body is not interpreted.
func (c *Client) Register(ctx context.Context, p Payload) error {
	body, contentType, err := p.Encode()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RegisterPath, body)
	if err != nil {
		return apperrors.Wrapf(err, "[registration Register] build request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRegistrationFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", apperrors.ErrRegistrationFailed, resp.StatusCode)
	}
	return nil
}
