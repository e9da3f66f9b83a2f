package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleClient Role = "client"
	RoleVendor Role = "vendor"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleClient:
		return RoleClient, nil
	case RoleVendor:
		return RoleVendor, nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

// Session is the caller identity handed to every data-fetching call. Nothing downstream reads
// tokens or view-mode flags from anywhere else.
type Session struct {
	UserID          string
	Role            Role
	VendorProfileID string
	Token           string
	ExpiresAt       time.Time
}

type Claims struct {
	jwt.RegisteredClaims

	Role            string `json:"role"`
	VendorProfileID string `json:"vendorProfileId,omitempty"`
}

var ErrMissingToken = errors.New("missing token")

// Verify checks an HS256 session token and returns the session it describes.
// audience is optional; when set the token must list it.
func Verify(tokenString, secret, audience string, now time.Time) (*Session, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if secret == "" {
		return nil, fmt.Errorf("missing session secret")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	claims := &Claims{}
	tok, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("missing subject")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:          claims.Subject,
		Role:            role,
		VendorProfileID: claims.VendorProfileID,
		Token:           tokenString,
		ExpiresAt:       claims.ExpiresAt.Time,
	}, nil
}

// Sign mints a session token. Used by the dev token command and tests.
func Sign(s Session, secret, audience string, issuedAt time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
		Role:            string(s.Role),
		VendorProfileID: s.VendorProfileID,
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
