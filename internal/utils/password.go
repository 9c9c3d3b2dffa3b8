package utils

import "golang.org/x/crypto/bcrypt"

// HashSecret returns the bcrypt hash of a plain secret. The same primitive
// covers account passwords and activation codes; both are stored hashed and
// verified by recomputation only.
func HashSecret(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifySecret compares a plain secret against its bcrypt hash.
func VerifySecret(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
