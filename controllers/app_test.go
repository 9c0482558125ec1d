package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/polgen/storebackend/auth"
	"github.com/polgen/storebackend/email"
	"github.com/polgen/storebackend/logging"
	"github.com/polgen/storebackend/models"
	"github.com/polgen/storebackend/repository"
	"github.com/polgen/storebackend/utils"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	kind    email.Kind
	to      string
	payload any
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	delay time.Duration
}

func (m *fakeMailer) Send(_ context.Context, kind email.Kind, to string, payload any) error {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()
	time.Sleep(delay)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{kind: kind, to: to, payload: payload})
	return nil
}

func (m *fakeMailer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	return m.sent[len(m.sent)-1]
}

func (m *fakeMailer) slow(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// waitFor blocks until at least n mails were sent; reset links go out after
// the response is written.
func (m *fakeMailer) waitFor(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return m.count() >= n }, 2*time.Second, 5*time.Millisecond)
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeImages struct {
	mu      sync.Mutex
	uploads int
	deleted []string
	err     error
}

func (f *fakeImages) Upload(_ context.Context, prefix string, files []*multipart.FileHeader) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f.uploads++
		urls = append(urls, "https://files.polgen.test/shop/products/"+prefix+"/"+fh.Filename)
	}
	return urls, nil
}

func (f *fakeImages) Delete(_ context.Context, urls []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, urls...)
	return nil
}

type testApp struct {
	router   *gin.Engine
	users    *repository.MemoryUserRepository
	products *repository.MemoryProductRepository
	hasher   *auth.BcryptHasher
	tokens   *auth.TokenService
	mailer   *fakeMailer
	images   *fakeImages
}

type appOption func(*Dependencies)

func withoutImageStore() appOption {
	return func(d *Dependencies) { d.Images = nil }
}

func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a := &testApp{
		users:    repository.NewMemoryUserRepository(),
		products: repository.NewMemoryProductRepository(),
		hasher:   auth.NewBcryptHasher(4),
		tokens:   auth.NewTokenService("test-secret", time.Hour),
		mailer:   &fakeMailer{},
		images:   &fakeImages{},
	}
	d := Dependencies{
		Users:          a.users,
		Products:       a.products,
		Hasher:         a.hasher,
		Tokens:         a.tokens,
		Resets:         auth.NewResetTokenService(time.Hour),
		Mailer:         a.mailer,
		Images:         a.images,
		ImageValidator: utils.NewImageValidator(1),
		MaxImages:      2,
		FrontendURL:    "https://shop.polgen.test",
		ContactInbox:   "inbox@polgen.test",
		Log:            logging.Discard(),
	}
	for _, opt := range opts {
		opt(&d)
	}

	r, err := NewRouter(d)
	require.NoError(t, err)
	a.router = r
	return a
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// seedUser stores a user directly and returns it with a session token.
func (a *testApp) seedUser(t *testing.T, username string, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := a.hasher.Hash("Passw0rd!")
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@polgen.test",
		PasswordHash: hash,
		Phone:        "555-0100",
		Address:      "1 Main St",
		Role:         role,
	}
	require.NoError(t, a.users.Create(context.Background(), u))
	tok, err := a.tokens.Issue(u.ID.Hex(), string(u.Role))
	require.NoError(t, err)
	return u, tok
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

var errSMTPDown = errors.New("smtp: connection refused")
