// Package auth parses the bearer tokens issued by the campus identity
// provider. Tokens carry the caller's role and, for students, their student
// id; this service never sees or compares credentials.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

type Claims struct {
	Subject   string `json:"sub_name,omitempty"`
	StudentID string `json:"sid,omitempty"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	Subject   string
	StudentID string
	Role      string
}

// GenerateToken signs claims with the shared secret. The identity provider
// is the normal issuer; this is used for tests and local tooling.
func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != RoleStudent && claims.Role != RoleTeacher {
		return nil, errors.New("unknown role")
	}
	if claims.Role == RoleStudent && claims.StudentID == "" {
		return nil, errors.New("student token missing student id")
	}
	return claims, nil
}
