// Package backendfake is an in-process stand-in for the Rafiq REST backend,
// used by tests to exercise the real HTTP clients.
package backendfake

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

const (
	RouteProfile  = "/account/profile/"
	RouteRegister = "/account/register/"
)

// Registration is one received multipart registration.
type Registration struct {
	Fields map[string]string
	Order  []string
	File   *UploadedFile
}

type UploadedFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// Backend serves the account endpoints. The zero value is not usable; call New.
type Backend struct {
	router chi.Router

	mu             sync.Mutex
	token          string
	profile        map[string]any
	rawProfile     string
	profileStatus  int
	registerStatus int
	profileHits    int
	lastAuth       string
	registrations  []Registration
	updates        []map[string]any
	hold           chan struct{}
	holding        chan struct{}
}

// New returns a backend accepting token as the only valid bearer token.
func New(token string) *Backend {
	b := &Backend{
		token:          token,
		profile:        map[string]any{},
		profileStatus:  http.StatusOK,
		registerStatus: http.StatusCreated,
	}

	r := chi.NewRouter()
	r.Get(RouteProfile, b.getProfile)
	r.Patch(RouteProfile, b.patchProfile)
	r.Post(RouteRegister, b.register)
	b.router = r
	return b
}

// NewServer starts b behind an httptest server closed at test cleanup.
func NewServer(t testing.TB, token string) (*Backend, *httptest.Server) {
	t.Helper()
	b := New(token)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

// SetProfile replaces the profile served to authorised requests.
func (b *Backend) SetProfile(profile map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profile = profile
	b.rawProfile = ""
}

// SetRawProfile serves body verbatim, e.g. to simulate a malformed response.
func (b *Backend) SetRawProfile(body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rawProfile = body
}

// SetToken changes the accepted bearer token.
func (b *Backend) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

func (b *Backend) SetProfileStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profileStatus = status
}

func (b *Backend) SetRegisterStatus(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.registerStatus = status
}

// HoldRegistrations blocks registration requests until release is called.
// started receives one value per request that reached the backend.
func (b *Backend) HoldRegistrations() (started <-chan struct{}, release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hold = make(chan struct{})
	b.holding = make(chan struct{}, 16)
	hold := b.hold
	var once sync.Once
	return b.holding, func() { once.Do(func() { close(hold) }) }
}

func (b *Backend) ProfileHits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profileHits
}

// LastAuthorization is the Authorization header of the latest profile request.
func (b *Backend) LastAuthorization() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuth
}

func (b *Backend) Registrations() []Registration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Registration(nil), b.registrations...)
}

func (b *Backend) ProfileUpdates() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.updates...)
}

func (b *Backend) authorised(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastAuth = r.Header.Get("Authorization")
	return b.token != "" && b.lastAuth == "Bearer "+b.token
}

func (b *Backend) getProfile(w http.ResponseWriter, r *http.Request) {
	ok := b.authorised(r)

	b.mu.Lock()
	b.profileHits++
	status, raw := b.profileStatus, b.rawProfile
	profile := b.profile
	b.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	if status != http.StatusOK {
		writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
		return
	}
	if raw != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, raw)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (b *Backend) patchProfile(w http.ResponseWriter, r *http.Request) {
	if !b.authorised(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	var update map[string]any
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	b.mu.Lock()
	status := b.profileStatus
	b.updates = append(b.updates, update)
	if status == http.StatusOK {
		merged := make(map[string]any, len(b.profile)+len(update))
		for k, v := range b.profile {
			merged[k] = v
		}
		for k, v := range update {
			merged[k] = v
		}
		b.profile = merged
	}
	profile := b.profile
	b.mu.Unlock()

	if status != http.StatusOK {
		writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	hold, holding := b.hold, b.holding
	b.mu.Unlock()
	if holding != nil {
		holding <- struct{}{}
	}
	if hold != nil {
		<-hold
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"detail": "multipart/form-data required"})
		return
	}
	reg, err := readRegistration(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	b.mu.Lock()
	b.registrations = append(b.registrations, reg)
	status := b.registerStatus
	b.mu.Unlock()

	if status >= 300 {
		writeJSON(w, status, map[string][]string{"email": {"user with this email already exists."}})
		return
	}
	writeJSON(w, status, map[string]string{"username": reg.Fields["username"], "email": reg.Fields["email"]})
}

func readRegistration(r *http.Request) (Registration, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return Registration{}, err
	}
	reg := Registration{Fields: map[string]string{}}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return reg, nil
		}
		if err != nil {
			return Registration{}, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return Registration{}, err
		}
		name := part.FormName()
		reg.Order = append(reg.Order, name)
		if part.FileName() != "" {
			reg.File = &UploadedFile{
				Field:       name,
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			}
			continue
		}
		reg.Fields[name] = string(data)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
