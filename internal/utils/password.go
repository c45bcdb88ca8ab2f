package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a salted bcrypt hash of the plaintext.  The cost
// comes from configuration so tests can use bcrypt.MinCost while production
// runs a deliberately slow setting.  The plaintext is never stored.
func HashPassword(plain string, cost int) (string, error) {
    b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
    if err != nil {
        return "", err
    }
    return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  Any
// bcrypt error (malformed hash included) counts as a mismatch, which the
// login flow records as a failed attempt.
func VerifyPassword(hash, plain string) bool {
    return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
