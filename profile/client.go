package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
)

// ProfilePath is the account profile endpoint relative to the base URL.
const ProfilePath = "/account/profile/"

// maxBodyBytes bounds how much of a profile response is read.
const maxBodyBytes = 1 << 20

// Client talks to the profile endpoint with bearer authentication.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient sets the base client the bearer transport wraps.
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

// bearer returns an HTTP client adding "Authorization: Bearer <token>".
func (c *Client) bearer(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

// Fetch reads the current user's profile.
func (c *Client) Fetch(ctx context.Context, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ProfilePath, nil)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[profile Fetch] build request")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, token, req, apperrors.ErrProfileFetchFailed)
}

// Update sends the edited fields and returns the stored profile.
func (c *Client) Update(ctx context.Context, token string, values EditValues) (*Profile, error) {
	body, err := json.Marshal(values)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[profile Update] encode")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+ProfilePath, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrapf(err, "[profile Update] build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, token, req, apperrors.ErrProfileUpdateFailed)
}

func (c *Client) do(ctx context.Context, token string, req *http.Request, failure error) (*Profile, error) {
	resp, err := c.bearer(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", failure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: status %d", failure, resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", failure, err)
	}
	return &p, nil
}
