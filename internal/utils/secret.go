package utils

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes a tenant secret with bcrypt at the given cost.
// Tenant secrets are long-lived API credentials, so the cost should be
// chosen for server-side verification throughput, not interactive login.
func HashSecret(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret compares a bcrypt hash against a presented secret.
func VerifySecret(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
