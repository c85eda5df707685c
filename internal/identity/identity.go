// Package identity turns the bearer token issued by the identity provider into
// a Viewer, and supplies tokens to outgoing API calls.
//
// Tokens are opaque to the rest of the front-end: the remote API is the party
// that authorizes requests. This package only reads the claims it needs to
// decide what the viewer sees (their user id, display name and role).
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	// jwt parses ID tokens; with no secret configured it reads the claims
	// without verifying the signature and leaves verification to the API.
	"github.com/golang-jwt/jwt/v5"

	"github.com/ShyamLatake/playout-front/internal/models"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Viewer is the signed-in user as far as the front-end is concerned.
type Viewer struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

// HasRole reports whether the viewer holds one of roles. Admins hold every role.
func (v Viewer) HasRole(roles ...models.UserRole) bool {
	if v.Role == models.UserRoleAdmin {
		return true
	}
	for _, r := range roles {
		if v.Role == r {
			return true
		}
	}
	return false
}

// Claims is the subset of ID-token claims the front-end reads. Firebase puts
// the uid in both "sub" and "user_id"; "role" is a custom claim.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

func (c *Claims) viewer() (*Viewer, error) {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}
	if id == "" {
		return nil, fmt.Errorf("%w: token missing subject", ErrInvalidToken)
	}
	name := c.Name
	if name == "" {
		name = "Player"
	}
	return &Viewer{ID: id, Name: name, Email: c.Email, Role: roleFromClaim(c.Role)}, nil
}

// roleFromClaim defaults anything unrecognised to the least privileged role.
func roleFromClaim(s string) models.UserRole {
	switch models.UserRole(strings.ToLower(s)) {
	case models.UserRoleAdmin:
		return models.UserRoleAdmin
	case models.UserRoleOwner:
		return models.UserRoleOwner
	default:
		return models.UserRolePlayer
	}
}

// Verifier reads viewers from tokens. With a Secret it checks the HS256
// signature and expiry; without one it only decodes the claims.
type Verifier struct {
	Secret []byte
}

// NewVerifier returns a verifier for secret; an empty secret means decode only.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		return &Verifier{}
	}
	return &Verifier{Secret: []byte(secret)}
}

// Viewer parses token and returns the viewer it identifies.
func (v *Verifier) Viewer(token string) (*Viewer, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	claims := &Claims{}
	if len(v.Secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return claims.viewer()
	}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.viewer()
}

// Mint issues an HS256 token for viewer. It backs the dev API's token command
// and tests; production tokens come from the identity provider.
func Mint(secret string, viewer Viewer, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewer.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: viewer.ID,
		Name:   viewer.Name,
		Email:  viewer.Email,
		Role:   string(viewer.Role),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("%w: authorization header must be Bearer", ErrInvalidToken)
	}
	tok := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tok == "" {
		return "", ErrMissingToken
	}
	return tok, nil
}

// --- token sources ---

// TokenSource is "get current ID token". An empty token with a nil error
// means the call goes out anonymously.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken always returns the same token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

type tokenKey struct{}

// WithToken attaches the caller's token to ctx so downstream API calls made on
// their behalf carry it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// ContextToken is a TokenSource that forwards the token attached by WithToken.
type ContextToken struct{}

func (ContextToken) Token(ctx context.Context) (string, error) {
	tok, _ := ctx.Value(tokenKey{}).(string)
	return tok, nil
}
