package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	domainErrors "github.com/davidleathers/zero-trust-access-engine/internal/domain/errors"
)

const contextKeySubject contextKey = "subject"

// Claims are the JWT claims accepted by the API
type Claims struct {
	jwt.RegisteredClaims
	TenantID string   `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// AuthConfig configures bearer token verification
type AuthConfig struct {
	Secret []byte
	Issuer string
}

// Authenticator verifies HS256 bearer tokens
type Authenticator struct {
	config AuthConfig
}

// NewAuthenticator creates an authenticator for tokens signed with cfg.Secret
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	return &Authenticator{config: cfg}
}

// SubjectFromContext returns the authenticated token subject
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(contextKeySubject).(string)
	return sub
}

func (a *Authenticator) middleware(rs responder) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractToken(r)
			if err != nil {
				a.writeUnauthorized(w, r, rs, "invalid authorization header")
				return
			}

			claims, err := a.ValidateToken(token)
			if err != nil {
				a.writeUnauthorized(w, r, rs, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeySubject, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ValidateToken parses tokenString and checks its signature, expiry and issuer
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.config.Secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (a *Authenticator) writeUnauthorized(w http.ResponseWriter, r *http.Request, rs responder, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="zero-trust"`)
	rs.writeError(w, r, domainErrors.NewUnauthorizedError(message))
}

func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.New("invalid authorization header format")
	}
	return token, nil
}
