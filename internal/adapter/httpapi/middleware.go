package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated caller, as asserted by the (external)
// authentication service that minted the token. This service only checks the
// signature and reads the claims.
type Principal struct {
	UserID string
	Name   string
	Role   string
}

// IsAdmin reports whether the principal may perform moderation actions.
func (p Principal) IsAdmin() bool { return p.Role == "admin" }

type ctxKey string

const principalKey ctxKey = "principal"

// requireAuth validates the Bearer token and injects the principal into the
// request context.
func (a *API) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		p, err := parseToken(a.secret, strings.TrimPrefix(authz, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin rejects non-admin principals. Must run after requireAuth.
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principalFrom(r)
		if !ok || !p.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func principalFrom(r *http.Request) (Principal, bool) {
	p, ok := r.Context().Value(principalKey).(Principal)
	return p, ok
}

// SignToken mints an HS256 token for a principal. Used by tests and the seed
// tool; production tokens come from the authentication service.
func SignToken(secret string, p Principal, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  p.UserID,
		"name": p.Name,
		"role": p.Role,
		"exp":  time.Now().Add(ttl).Unix(),
		"iat":  time.Now().Unix(),
		"iss":  "hazard-watch",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// parseToken validates a token and extracts the principal claims.
func parseToken(secret, raw string) (Principal, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Principal{}, errors.New("invalid token")
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errors.New("no claims")
	}
	p := Principal{}
	if sub, ok := claims["sub"].(string); ok {
		p.UserID = sub
	}
	if name, ok := claims["name"].(string); ok {
		p.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		p.Role = role
	}
	if p.UserID == "" {
		return Principal{}, errors.New("no subject")
	}
	return p, nil
}
