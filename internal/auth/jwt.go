package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AccessTokenCookie is the cookie carrying the access token for browser sessions.
const AccessTokenCookie = "sb-access-token"

// Claims are the JWT claims accepted by the verifier.
// The subject is the principal ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier verifies HS256 access tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	clock  clock.Clock
}

// NewVerifier creates a verifier for tokens signed with secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not provided")
	}
	return &Verifier{secret: []byte(secret), clock: clock.New()}, nil
}

// WithClock replaces the clock used for expiry checks.
func (v *Verifier) WithClock(c clock.Clock) *Verifier {
	v.clock = c
	return v
}

// Verify parses and validates a token and returns the principal it identifies.
func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject: %w", ErrUnauthenticated, err)
	}

	return &Principal{ID: id, Email: claims.Email}, nil
}

// VerifyRequest extracts the access token from the Authorization header, or
// the access token cookie when no header is present, and verifies it.
func (v *Verifier) VerifyRequest(r *http.Request) (*Principal, error) {
	tokenString := extractBearerToken(r)
	if tokenString == "" {
		if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
			tokenString = cookie.Value
		}
	}
	if tokenString == "" {
		return nil, fmt.Errorf("%w: missing access token", ErrUnauthenticated)
	}
	return v.Verify(tokenString)
}

// Middleware returns an HTTP middleware that attaches the verified principal
// to the request context. Requests without a valid token pass through without
// a principal; handlers decide how to reject them.
func (v *Verifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := v.VerifyRequest(r)
			if err != nil {
				log.Debug().Err(err).Msg("Access token verification failed")
				next.ServeHTTP(w, r)
				return
			}

			log.Debug().
				Str("principal_id", principal.ID.String()).
				Msg("Access token authenticated")

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// StaticMiddleware attaches a fixed principal to every request.
// Only used when authentication is disabled for local development.
func StaticMiddleware(principal *Principal) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// extractBearerToken extracts the JWT from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
