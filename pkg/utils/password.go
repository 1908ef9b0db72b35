package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a bcrypt hash at default cost. The raw password is
// never stored; only this hash reaches the aggregate.
func HashPassword(pw string) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b)
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
