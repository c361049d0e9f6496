package handler

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/fatora-app/fatora-server/internal/model"
	"github.com/fatora-app/fatora-server/internal/repository"
)

// In-memory stores mirroring the repository semantics, so handlers can
// be exercised without a database.  Uniqueness is enforced atomically
// under the fake's lock, the same guarantee the real unique indexes
// give.

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*model.User
	nextID  uint64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*model.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, ok := f.byEmail[email]; ok {
		return repository.ErrEmailExists
	}
	f.nextID++
	u.ID = f.nextID
	u.Email = email
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	f.byEmail[email] = &cp
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeTokens struct {
	mu      sync.Mutex
	byHash  map[string]uint64
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byHash: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) Store(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[hash] = userID
	return nil
}

func (f *fakeTokens) Revoke(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[hash] = true
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, uid := range f.byHash {
		if uid == userID {
			f.revoked[h] = true
		}
	}
	return nil
}

func (f *fakeTokens) isRevoked(hash string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[hash]
}

type fakeProducts struct {
	mu        sync.Mutex
	byBarcode map[string]*model.Product
	nextID    uint64
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{byBarcode: map[string]*model.Product{}}
}

func (f *fakeProducts) Create(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byBarcode[p.Barcode]; ok {
		return repository.ErrBarcodeExists
	}
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.byBarcode[p.Barcode] = &cp
	return nil
}

func (f *fakeProducts) GetByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byBarcode[barcode]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) ListByUser(_ context.Context, userID uint64) ([]*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Product
	for _, p := range f.byBarcode {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}
