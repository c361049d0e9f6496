package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a registration password with bcrypt at the
// configured cost.  The cost comes from config so tests can run at
// bcrypt.MinCost while production uses a slower factor.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// It is used on login; a mismatch and an unknown email both surface to
// the client as the same invalid-credentials response.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
