// Package auth turns bearer tokens into domain actors.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
)

// Claims is the token payload. Older tokens carry the actor id in "id"
// instead of "sub".
type Claims struct {
	LegacyID string `json:"id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates the token and returns the actor it identifies.
func (v *Verifier) Parse(tokenString string) (domain.Actor, error) {
	const op = "auth.parse"

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, domain.E(domain.KindNotAuthenticated, op, "token expired")
		}
		return domain.Actor{}, domain.E(domain.KindNotAuthenticated, op, "invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return domain.Actor{}, domain.E(domain.KindNotAuthenticated, op, "invalid token claims")
	}
	id := claims.Subject
	if id == "" {
		id = claims.LegacyID
	}
	role, ok := domain.ParseRole(claims.Role)
	if id == "" || !ok {
		return domain.Actor{}, domain.E(domain.KindNotAuthenticated, op, "token has no usable identity")
	}
	return domain.Actor{ID: id, Role: role}, nil
}

// Sign issues a token for actor valid for ttl. Used by the dev token command
// and tests; production tokens come from the identity service.
func (v *Verifier) Sign(actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}
