package auth

import (
	"fmt"
	"time"

	"procurement-be/internal/access"
	"procurement-be/internal/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken  = apperror.New(apperror.KindUnauthenticated, "invalid or expired token")
	ErrInvalidClaims = apperror.New(apperror.KindUnauthenticated, "token does not identify a user with a known role")
)

// Claims carried by access tokens. Tokens are issued by the identity
// service; this package only verifies them.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks an HS256 token and returns the actor it names.
func (v *Verifier) Verify(tokenStr string) (access.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return access.Actor{}, apperror.Wrap(apperror.KindUnauthenticated, ErrInvalidToken.Message, err)
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil || id == uuid.Nil {
		return access.Actor{}, ErrInvalidClaims
	}
	role := access.Role(claims.Role)
	if !role.Valid() {
		return access.Actor{}, ErrInvalidClaims
	}

	return access.Actor{ID: id, Role: role}, nil
}

// Issue signs a token for actor. The server never calls it; it exists for
// local tooling and tests that need a valid token.
func (v *Verifier) Issue(actor access.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: actor.ID.String(),
		Role:   string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
