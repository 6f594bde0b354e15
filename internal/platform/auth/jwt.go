package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

type ctxKeyUserID struct{}
type ctxKeyRole struct{}

// ErrNoBearer is returned by BearerToken when the request carries no bearer credential.
var ErrNoBearer = errors.New("auth: no bearer token")

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(string)
	return v, ok && v != ""
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

// WithRole injects a role into context. Useful for testing.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole{}, role)
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyRole{}).(string)
	return v, ok
}

type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if authz == "" {
		return "", ErrNoBearer
	}
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("auth: malformed authorization header")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", errors.New("auth: empty bearer token")
	}
	return tok, nil
}

func (v JWTVerifier) authenticate(r *http.Request) (context.Context, error) {
	tok, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := v.Parse(tok)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("auth: token has no subject")
	}
	ctx := context.WithValue(r.Context(), ctxKeyUserID{}, claims.Subject)
	if strings.TrimSpace(claims.Role) != "" {
		ctx = context.WithValue(ctx, ctxKeyRole{}, claims.Role)
	}
	return ctx, nil
}

// RequireUser middleware validates Bearer token and injects user_id into context.
func RequireUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := verifier.authenticate(r)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalUser injects user_id when a valid bearer token is present and lets
// anonymous requests through untouched. A present but invalid token is rejected.
func OptionalUser(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := verifier.authenticate(r)
			switch {
			case errors.Is(err, ErrNoBearer):
				next.ServeHTTP(w, r)
			case err != nil:
				w.WriteHeader(http.StatusUnauthorized)
			default:
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
