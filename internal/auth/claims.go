package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the Supabase access token claims this service reads.
// The user id is the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (c Claims) UserID() string { return c.Subject }
