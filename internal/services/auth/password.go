package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a password with bcrypt at the given cost.
// Each call uses a fresh salt, so equal inputs give different hashes.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
