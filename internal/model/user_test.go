package model

import (
	"testing"
	"time"
)

func TestAccessTokenActive(t *testing.T) {
	now := time.Now().UTC()
	revoked := now.Add(-time.Minute)

	cases := []struct {
		name string
		tok  AccessToken
		want bool
	}{
		{"live", AccessToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", AccessToken{ExpiresAt: now.Add(-time.Hour)}, false},
		{"revoked", AccessToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tok.Active(now); got != tc.want {
				t.Fatalf("Active = %v, want %v", got, tc.want)
			}
		})
	}
}
