package security

import "golang.org/x/crypto/bcrypt"

// cost 12 is deliberately expensive; hashing dominates signup/login
// latency but is a one-shot cost per request.
const bcryptCost = 12

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}
