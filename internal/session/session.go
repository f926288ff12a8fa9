// Package session issues and verifies the bearer tokens that carry the request principal.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/rfqdesk/internal/api"
	"github.com/aristath/rfqdesk/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or claim checks
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the token claims. Subject holds the principal id.
type Claims struct {
	Role         string `json:"role"`
	Organization string `json:"org,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer creates an issuer for secret
func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs a token for p valid for ttl
func (i *Issuer) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	now := i.now()
	claims := Claims{
		Role:         string(p.Role),
		Organization: p.Organization,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies token and returns the principal it carries
func (i *Issuer) Parse(token string) (domain.Principal, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	p := domain.Principal{
		ID:           claims.Subject,
		Role:         domain.Role(claims.Role),
		Organization: strings.TrimSpace(claims.Organization),
	}
	if err := p.Validate(); err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return p, nil
}

// Middleware authenticates every request with a bearer token. The access_token
// query parameter is accepted as a fallback for EventSource and WebSocket clients.
func Middleware(issuer *Issuer, log zerolog.Logger) func(http.Handler) http.Handler {
	log = log.With().Str("component", "session").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				api.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			p, err := issuer.Parse(token)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected token")
				api.WriteError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
		return ""
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
