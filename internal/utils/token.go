package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/sha256" // SHA-256 hashing for stored token digests
	"encoding/hex"  // hex encoding for digests
	"time"          // expiration arithmetic

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed HS256 access token along with its
// expiry.  The Token field is the serialized string handed to the
// client; clients treat it as an opaque bearer credential.  Only the
// SHA-256 hash of the string is ever persisted server-side.
type AccessToken struct {
	Token string    // the serialized token string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 token for a user.  The claims
// are the subject (sub, the user ID), the user's email, the expiration
// (exp) and issued-at (iat) timestamps.  ttlMin controls the lifetime in
// minutes.
func NewAccessToken(secret string, userID uint64, email string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// HashToken returns the SHA-256 hash of a token string as a hex string.
// Storing only the hash means a leaked database dump cannot be replayed
// as live credentials.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
