package client

import (
	"time"

	bolt "go.etcd.io/bbolt"
)

// The session bucket holds a single durable key, mirroring the mobile
// app's key-value storage of the bearer credential.
const (
	sessionBucket = "session"
	tokenKey      = "auth_token"
)

// TokenStore persists the bearer token across process restarts in a
// small bbolt file.  It is deliberately a single-key store: the client
// has exactly one current session.
type TokenStore struct {
	db *bolt.DB
}

// OpenTokenStore opens (creating if needed) the session database at the
// given path.
func OpenTokenStore(path string) (*TokenStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &TokenStore{db: db}, nil
}

// Save durably stores the token under the auth_token key.
func (s *TokenStore) Save(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Put([]byte(tokenKey), []byte(token))
	})
}

// Load returns the stored token, or "" when none is present.
func (s *TokenStore) Load() (string, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(sessionBucket)).Get([]byte(tokenKey)); v != nil {
			token = string(v)
		}
		return nil
	})
	return token, err
}

// Clear removes the stored token.
func (s *TokenStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionBucket)).Delete([]byte(tokenKey))
	})
}

// Close releases the underlying database file.
func (s *TokenStore) Close() error {
	return s.db.Close()
}
