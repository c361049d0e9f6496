package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Passwords are stored only as bcrypt hashes.  The PasswordHash
// field carries a "-" json tag so the hash can never leak into an API
// response even when the struct is serialized directly.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	FirstName    – user's given name.
//	SecondName   – user's family name.
//	Email        – unique email address (login identifier).
//	PasswordHash – bcrypt hashed password.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`          // users.id
	FirstName    string    `json:"first_name"`  // users.first_name
	SecondName   string    `json:"second_name"` // users.second_name
	Email        string    `json:"email"`       // users.email
	PasswordHash string    `json:"-"`           // users.password_hash
	CreatedAt    time.Time `json:"created_at"`  // users.created_at
	UpdatedAt    time.Time `json:"updated_at"`  // users.updated_at
}

// AccessToken models an entry in the `access_tokens` table.  Each access
// token belongs to a user and carries expiry and revocation metadata.
// The plain token is never stored; only its SHA-256 hash.  Persisting
// the hash is what makes logout an actual revocation: a token whose row
// is revoked fails authentication even while its signature is valid.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	TokenHash – SHA-256 hex digest of the token string.
//	ExpiresAt – expiration timestamp of the token.
//	RevokedAt – when the token was revoked (null while active).
//	CreatedAt – timestamp of creation.
type AccessToken struct {
	ID        uint64     // access_tokens.id
	UserID    uint64     // access_tokens.user_id
	TokenHash string     // access_tokens.token_hash
	ExpiresAt time.Time  // access_tokens.expires_at
	RevokedAt *time.Time // access_tokens.revoked_at (nullable)
	CreatedAt time.Time  // access_tokens.created_at
}

// Active reports whether the token can still authenticate at the given
// instant: never revoked and not past its expiry.
func (t *AccessToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
