package claims

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
)

type contextKey string

const (
	TokenContextKey contextKey = "token"

	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrMalformed = errors.New("malformed token")
	ErrNoSecret  = errors.New("signing secret is empty")
)

type Claims struct {
	Type string `json:"type,omitempty"`
	jwt.StandardClaims
}

// Decode reads the payload segment of token without checking the signature.
// Verification belongs to the API; the client only needs sub and exp.
func Decode(token string) (*Claims, error) {
	c := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, c); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrMalformed)
	}
	if c.ExpiresAt == 0 {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}
	return c, nil
}

// Expired reports whether exp lies before now, counting the fraction of
// the current second.
func (c *Claims) Expired(now time.Time) bool {
	return c.ExpiresTime().Before(now)
}

func (c *Claims) ExpiresTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

func New(subject, tokenType string, ttl time.Duration, now time.Time) *Claims {
	return &Claims{
		Type: tokenType,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			IssuedAt:  now.UTC().Unix(),
			ExpiresAt: now.Add(ttl).UTC().Unix(),
		},
	}
}

func Sign(c *Claims, secret string) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// Verify checks the HS256 signature and the standard time claims.
func Verify(token, secret string) (*Claims, error) {
	c := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		method, ok := t.Method.(*jwt.SigningMethodHMAC)
		if !ok || method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || c.Subject == "" {
		return nil, ErrMalformed
	}
	return c, nil
}
