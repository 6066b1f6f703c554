package api

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/userboard/internal/api/middleware"
	"github.com/martijn/userboard/internal/core/domain"
	"github.com/martijn/userboard/internal/core/form"
	"github.com/martijn/userboard/internal/core/repository"
	"github.com/martijn/userboard/internal/core/service"
	"github.com/martijn/userboard/internal/infrastructure/sqlite"
	"github.com/martijn/userboard/pkg/config"
)

const testPassword = "Str0ng!Pass99"

// testApp is a running server backed by an in-memory store, plus a client
// that keeps cookies and does not follow redirects.
type testApp struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
	users  repository.UserRepository
	codec  *service.CredentialCodec
	svc    *service.UserService
}

func newTestApp(t *testing.T, captcha form.CaptchaVerifier) *testApp {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	sessions := sqlite.NewSessionRepository(db)
	codec := service.NewCredentialCodec(service.CodecParams{Iterations: 1000})
	userService := service.NewUserService(users, codec)
	authService := service.NewAuthService(users, sessions, codec, "test-secret", "HS256", time.Hour)

	cfg := &config.Config{
		SecretKey:     "test-secret",
		SessionCookie: config.DefaultSessionCookie,
		DevMode:       true,
	}
	srv, err := NewServer(cfg, authService, userService, form.NewValidator(captcha))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	return &testApp{
		t:      t,
		server: ts,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		users: users,
		codec: codec,
		svc:   userService,
	}
}

// seedUser stores a user directly through the service layer.
func (a *testApp) seedUser(username, email string) *domain.User {
	a.t.Helper()

	user, err := a.svc.Create(context.Background(), service.UserInput{
		Username: username,
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Email:    email,
		Password: testPassword,
	})
	if err != nil {
		a.t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

func (a *testApp) countUsers() int {
	a.t.Helper()

	users, err := a.users.List(context.Background())
	if err != nil {
		a.t.Fatalf("failed to list users: %v", err)
	}
	return len(users)
}

func (a *testApp) get(path string) *http.Response {
	a.t.Helper()

	resp, err := a.client.Get(a.server.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// post submits values as a form, adding the CSRF token from the cookie jar.
func (a *testApp) post(path string, values url.Values) *http.Response {
	a.t.Helper()

	if values == nil {
		values = url.Values{}
	}
	if values.Get(middleware.CSRFFieldName) == "" {
		values.Set(middleware.CSRFFieldName, a.csrfToken())
	}
	return a.postRaw(path, values)
}

func (a *testApp) postRaw(path string, values url.Values) *http.Response {
	a.t.Helper()

	resp, err := a.client.PostForm(a.server.URL+path, values)
	if err != nil {
		a.t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func (a *testApp) cookie(name string) string {
	u, _ := url.Parse(a.server.URL)
	for _, c := range a.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (a *testApp) setCookie(name, value string) {
	u, _ := url.Parse(a.server.URL)
	a.client.Jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

func (a *testApp) csrfToken() string {
	a.t.Helper()

	if token := a.cookie(middleware.CSRFCookieName); token != "" {
		return token
	}
	readBody(a.t, a.get("/"))
	token := a.cookie(middleware.CSRFCookieName)
	if token == "" {
		a.t.Fatal("server did not issue a CSRF cookie")
	}
	return token
}

func (a *testApp) login(username, password string) *http.Response {
	a.t.Helper()

	return a.post("/login", url.Values{
		"username": {username},
		"password": {password},
	})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(b)
}

func userForm(username, email, password string) url.Values {
	return url.Values{
		"name":             {"Bob Builder"},
		"username":         {username},
		"email":            {email},
		"role":             {"editor"},
		"password":         {password},
		"password_confirm": {password},
	}
}
