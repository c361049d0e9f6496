package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/fatora-app/fatora-server/internal/config"
	"github.com/fatora-app/fatora-server/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:    "handler-test-secret",
		AccessTTLMin: 30,
		BcryptCost:   bcrypt.MinCost,
	}
}

func postJSON(t *testing.T, e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegisterCreatesUser(t *testing.T) {
	h := NewAuthHandler(testConfig(), newFakeUsers(), newFakeTokens())
	e := echo.New()

	c, rec := postJSON(t, e, "/register",
		`{"first_name":"Sara","second_name":"Adel","email":"Sara@Example.com","password":"longenough"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body)
	}

	var resp struct {
		User struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.User.ID == 0 {
		t.Fatal("user id not assigned")
	}
	if resp.User.Email != "sara@example.com" {
		t.Fatalf("email = %q, want normalized lower case", resp.User.Email)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatal("response leaks password material")
	}
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"missing first name", `{"second_name":"A","email":"a@b.c","password":"longenough"}`, "first_name"},
		{"bad email", `{"first_name":"A","second_name":"B","email":"not-an-email","password":"longenough"}`, "email"},
		{"short password", `{"first_name":"A","second_name":"B","email":"a@b.c","password":"short"}`, "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewAuthHandler(testConfig(), newFakeUsers(), newFakeTokens())
			c, rec := postJSON(t, echo.New(), "/register", tc.body)
			if err := h.Register(c); err != nil {
				t.Fatalf("Register: %v", err)
			}
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			var resp struct {
				Errors map[string][]string `json:"errors"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if len(resp.Errors[tc.field]) == 0 {
				t.Fatalf("no error reported for field %q: %v", tc.field, resp.Errors)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := NewAuthHandler(testConfig(), newFakeUsers(), newFakeTokens())
	e := echo.New()
	body := `{"first_name":"A","second_name":"B","email":"dup@b.c","password":"longenough"}`

	c, rec := postJSON(t, e, "/register", body)
	if err := h.Register(c); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}

	c, rec = postJSON(t, e, "/register", body)
	if err := h.Register(c); err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate register status = %d, want 422", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "email") {
		t.Fatalf("duplicate error not attached to email field: %s", rec.Body)
	}
}

func registerAndLogin(t *testing.T, h *AuthHandler, e *echo.Echo, email, password string) string {
	t.Helper()
	c, rec := postJSON(t, e, "/register",
		`{"first_name":"A","second_name":"B","email":"`+email+`","password":"`+password+`"}`)
	if err := h.Register(c); err != nil || rec.Code != http.StatusCreated {
		t.Fatalf("register: err=%v status=%d", err, rec.Code)
	}

	c, rec = postJSON(t, e, "/login", `{"email":"`+email+`","password":"`+password+`"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d (body %s)", rec.Code, rec.Body)
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("token_type = %q, want Bearer", resp.TokenType)
	}
	if resp.AccessToken == "" {
		t.Fatal("empty access token")
	}
	return resp.AccessToken
}

func TestLoginIssuesStoredToken(t *testing.T) {
	tokens := newFakeTokens()
	h := NewAuthHandler(testConfig(), newFakeUsers(), tokens)
	e := echo.New()

	access := registerAndLogin(t, h, e, "login@b.c", "longenough")

	tokens.mu.Lock()
	_, stored := tokens.byHash[utils.HashToken(access)]
	tokens.mu.Unlock()
	if !stored {
		t.Fatal("issued token hash not persisted")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := NewAuthHandler(testConfig(), newFakeUsers(), newFakeTokens())
	e := echo.New()
	registerAndLogin(t, h, e, "wrongpw@b.c", "longenough")

	c, rec := postJSON(t, e, "/login", `{"email":"wrongpw@b.c","password":"incorrect!"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	h := NewAuthHandler(testConfig(), newFakeUsers(), newFakeTokens())
	c, rec := postJSON(t, echo.New(), "/login", `{"email":"ghost@b.c","password":"whatever1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMeReturnsAuthenticatedUser(t *testing.T) {
	h := NewAuthHandler(testConfig(), newFakeUsers(), newFakeTokens())
	e := echo.New()
	registerAndLogin(t, h, e, "me@b.c", "longenough")

	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(1))
	if err := h.Me(c); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}

	var resp struct {
		User struct {
			ID    uint64 `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.User.ID != 1 || resp.User.Email != "me@b.c" {
		t.Fatalf("user = %+v", resp.User)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatal("response leaks password material")
	}
}

func TestMeUnknownUserRejected(t *testing.T) {
	h := NewAuthHandler(testConfig(), newFakeUsers(), newFakeTokens())
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.Set("user_id", uint64(99))
	if err := h.Me(c); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutRevokesPresentedToken(t *testing.T) {
	tokens := newFakeTokens()
	h := NewAuthHandler(testConfig(), newFakeUsers(), tokens)
	e := echo.New()
	access := registerAndLogin(t, h, e, "bye@b.c", "longenough")
	hash := utils.HashToken(access)

	c, rec := postJSON(t, e, "/logout", ``)
	c.Set("user_id", uint64(1))
	c.Set("token_hash", hash)
	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !tokens.isRevoked(hash) {
		t.Fatal("token not revoked after logout")
	}
}
