// Package client implements the core of the barcode shopping-list app's
// mobile client: the durable session cache, the HTTP API wrapper and
// the scan-and-resolve flow.  It talks to the catalog server over
// JSON/HTTP and classifies failures into the taxonomy the UI layers
// branch on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors of the API taxonomy.  ErrNotFound is a normal branch
// of the scanner flow, not a failure; ErrUnauthorized means the session
// was cleared and the user must log in again.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError carries the server's 422 response: a summary message
// plus per-field messages for form display.
type ValidationError struct {
	Message string              `json:"message"`
	Fields  map[string][]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// TransientError wraps transport failures, timeouts and server errors.
// These are reported once per attempt and never retried automatically.
type TransientError struct {
	Status int   // HTTP status when one was received, 0 otherwise
	Err    error // underlying transport error, may be nil
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return "request failed: " + e.Err.Error()
	}
	return fmt.Sprintf("request failed: server returned %d", e.Status)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Client-side views of the API resources.  They are decoupled from the
// server's models the same way the mobile app's types are.
type Product struct {
	ID        uint64  `json:"id"`
	Barcode   string  `json:"barcode"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	LastPrice float64 `json:"last_price"`
	Image     *string `json:"image"`
}

type User struct {
	ID         uint64 `json:"id"`
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	Email      string `json:"email"`
}

// ProductDraft is the payload of a product creation, typically
// pre-filled with the barcode that failed to resolve.
type ProductDraft struct {
	Barcode   string  `json:"barcode"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand"`
	LastPrice float64 `json:"last_price"`
}

// Client wraps the catalog API.  Every outbound request attaches the
// session's bearer token when one is present; only the barcode lookup
// works without one.  All calls share a single request timeout so no
// scan can hang the UI indefinitely.
type Client struct {
	base    string
	http    *http.Client
	session *Session
}

// New builds a client for the API at baseURL using the given session.
func New(baseURL string, session *Session) *Client {
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		session: session,
	}
}

// Session exposes the injected session, mainly so UI code can consult
// the authenticated flag.
func (c *Client) Session() *Session { return c.session }

// Register creates an account and, like the mobile app, immediately
// logs the new user in so the returned session is ready to use.
func (c *Client) Register(ctx context.Context, firstName, secondName, email, password string) (*User, error) {
	body := map[string]string{
		"first_name":  firstName,
		"second_name": secondName,
		"email":       email,
		"password":    password,
	}
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", body, &resp); err != nil {
		return nil, err
	}
	return c.Login(ctx, email, password)
}

// Login exchanges credentials for a bearer token and persists it in the
// session.  A 401 leaves the session unauthenticated.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		User        *User  `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", body, &resp); err != nil {
		return nil, err
	}
	if err := c.session.Set(resp.AccessToken); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout revokes the server-side token and clears the session.  The
// session is cleared even when the server call fails, so a flaky
// network can never leave the client stuck logged in.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, nil)
	if clearErr := c.session.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	if errors.Is(err, ErrUnauthorized) {
		// The token was already dead; logout still succeeded locally.
		return nil
	}
	return err
}

// LookupProduct resolves a barcode.  ErrNotFound signals the normal
// "offer to add it" branch of the scanner flow.
func (c *Client) LookupProduct(ctx context.Context, barcode string) (*Product, error) {
	var resp struct {
		Product *Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+barcode, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Product, nil
}

// CreateProduct submits a draft to the catalog.  Requires an
// authenticated session.
func (c *Client) CreateProduct(ctx context.Context, draft ProductDraft) (*Product, error) {
	var resp struct {
		Product *Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/products", draft, &resp); err != nil {
		return nil, err
	}
	return resp.Product, nil
}

// do performs one JSON request/response cycle and maps the outcome onto
// the error taxonomy.  A 401 on any call clears the session before
// returning ErrUnauthorized: that is the lazy reconciliation of a stale
// restored token, and the caller's cue to transition back to login.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	case resp.StatusCode == http.StatusUnauthorized:
		_ = c.session.Clear()
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity:
		ve := &ValidationError{}
		if err := json.NewDecoder(resp.Body).Decode(ve); err != nil {
			ve.Message = "the given data was invalid"
		}
		return ve
	case resp.StatusCode >= 500:
		return &TransientError{Status: resp.StatusCode}
	default:
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		if msg.Message == "" {
			msg.Message = resp.Status
		}
		return fmt.Errorf("unexpected response: %s", msg.Message)
	}
}
