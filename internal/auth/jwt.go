package auth

import (
	"errors"
	"time"

	"voice-booking/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks access tokens issued by Supabase Auth (HS256, project JWT secret).
// Tokens are never issued here; the frontend signs users in with Supabase.
type Verifier struct {
	secret   []byte
	audience string
}

func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("SUPABASE_JWT_SECRET is required")
	}
	return &Verifier{secret: []byte(cfg.JWTSecret), audience: cfg.JWTAudience}, nil
}

func (v *Verifier) Verify(tokenString string, now time.Time) (Claims, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second), // clock skew tolerance
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	if claims.UserID() == "" {
		return Claims{}, errors.New("sub missing")
	}
	return claims, nil
}
