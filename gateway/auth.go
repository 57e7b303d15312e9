package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"seatswap/config"
)

type contextKey string

const contextKeyCaller contextKey = "caller"

// Authenticator verifies HS256 bearer tokens. The subject claim carries the
// caller's hex-encoded account address.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator constructs a token verifier over the shared secret.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// Middleware rejects requests without a valid bearer token and stores the
// caller address in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "invalid token")
			return
		}
		subject, err := claims.GetSubject()
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing subject claim")
			return
		}
		caller, err := config.ParseAddress(subject)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "subject is not an account address")
			return
		}
		ctx := context.WithValue(r.Context(), contextKeyCaller, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFrom extracts the authenticated account address from the context.
func CallerFrom(ctx context.Context) ([20]byte, bool) {
	caller, ok := ctx.Value(contextKeyCaller).([20]byte)
	return caller, ok
}

// IssueToken mints a token for the given account address. Used by tests and
// local tooling.
func (a *Authenticator) IssueToken(subject string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	return token.SignedString(a.secret)
}
