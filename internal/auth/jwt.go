package auth

import (
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// --- Context Keys ---

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const (
	UserNameKey contextKey = "userName"
	RoleKey     contextKey = "role"
)

// --- JWT Claims ---

// CustomClaims includes standard JWT claims plus the HR app's identity
// claims. Login and role switching happen upstream; this service only
// consumes the resulting token. Role is the active operating role and is
// used as the conversation partition key (the role scope).
type CustomClaims struct {
	UserName string `json:"user_name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// NewAccessToken generates a signed token for the given identity. The main
// consumer is test and local tooling; production tokens are minted by the
// auth collaborator.
func NewAccessToken(userName, role, jwtSecret string, expiration time.Duration) (string, error) {
	claims := CustomClaims{
		UserName: userName,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "hrassist-backend",
			Subject:   userName,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		log.Printf("Error signing JWT token for user %s: %v", userName, err)
		return "", err
	}

	return signedToken, nil
}
