package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fatora-app/fatora-server/internal/utils"
)

const testSecret = "middleware-test-secret"

// fakeTokens is an in-memory TokenValidator mirroring the token
// repository's semantics: unknown or revoked hashes fail validation.
type fakeTokens struct {
	mu      sync.Mutex
	byHash  map[string]uint64
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byHash: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) add(hash string, userID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[hash] = userID
}

func (f *fakeTokens) revoke(hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[hash] = true
}

func (f *fakeTokens) Validate(_ context.Context, hash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.byHash[hash]
	if !ok || f.revoked[hash] {
		return 0, sql.ErrNoRows
	}
	return uid, nil
}

func runProtected(t *testing.T, tokens *fakeTokens, authHeader string) (*httptest.ResponseRecorder, uint64) {
	t.Helper()
	e := echo.New()
	var gotUID uint64
	h := BearerAuth(testSecret, tokens)(func(c echo.Context) error {
		gotUID, _ = c.Get("user_id").(uint64)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, gotUID
}

func TestBearerAuthAcceptsLiveToken(t *testing.T) {
	tokens := newFakeTokens()
	at, err := utils.NewAccessToken(testSecret, 7, "a@b.c", 30)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	tokens.add(utils.HashToken(at.Token), 7)

	rec, uid := runProtected(t, tokens, "Bearer "+at.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if uid != 7 {
		t.Fatalf("user_id = %d, want 7", uid)
	}
}

func TestBearerAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := runProtected(t, newFakeTokens(), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuthRejectsGarbageToken(t *testing.T) {
	rec, _ := runProtected(t, newFakeTokens(), "Bearer not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestBearerAuthRejectsRevokedToken(t *testing.T) {
	tokens := newFakeTokens()
	at, err := utils.NewAccessToken(testSecret, 7, "a@b.c", 30)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	hash := utils.HashToken(at.Token)
	tokens.add(hash, 7)
	tokens.revoke(hash)

	rec, _ := runProtected(t, tokens, "Bearer "+at.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replayed revoked token: status = %d, want 401", rec.Code)
	}
}

func TestBearerAuthRejectsExpiredToken(t *testing.T) {
	tokens := newFakeTokens()
	// A negative TTL produces a token whose exp claim is already past;
	// signature verification succeeds but the exp check must not.
	at, err := utils.NewAccessToken(testSecret, 7, "a@b.c", -1)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if !at.Exp.Before(time.Now()) {
		t.Fatal("test token unexpectedly unexpired")
	}
	tokens.add(utils.HashToken(at.Token), 7)

	rec, _ := runProtected(t, tokens, "Bearer "+at.Token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: status = %d, want 401", rec.Code)
	}
}
