package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"familytree/internal/models"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SuperadminContextKey ContextKey = "superadmin"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	jwtSecret []byte
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: []byte(jwtSecret)}
}

type accessClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// RequireSuperAdmin is middleware that requires a valid bearer token carrying
// the superadmin role. The token subject is stored in the request context as
// the reviewer identity.
func (m *Middleware) RequireSuperAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
		claims := &accessClaims{}
		parsed, err := parser.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
			return m.jwtSecret, nil
		})
		if err != nil || !parsed.Valid {
			respondWithError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.Role != models.RoleSuperAdmin {
			respondWithError(w, http.StatusForbidden, "superadmin role required")
			return
		}
		if claims.Subject == "" {
			respondWithError(w, http.StatusUnauthorized, "token missing subject")
			return
		}

		ctx := context.WithValue(r.Context(), SuperadminContextKey, claims.Subject)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// SuperadminFromContext retrieves the authenticated superadmin id from the
// request context
func SuperadminFromContext(ctx context.Context) string {
	id, _ := ctx.Value(SuperadminContextKey).(string)
	return id
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// CORS middleware allows cross-origin requests from the web frontend
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
