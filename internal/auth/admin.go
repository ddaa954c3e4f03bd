package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	adminIDKey   contextKey = "admin_id"
	adminRoleKey contextKey = "admin_role"
)

// AdminClaims is the payload of staff tokens issued by IssueAdminToken.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueAdminToken signs a short-lived HMAC token for a staff account.
func IssueAdminToken(secret, adminID, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("admin JWT secret not configured")
	}
	claims := AdminClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			Issuer:    "turfbook",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyAdminToken parses and validates a staff token.
func VerifyAdminToken(secret, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid admin token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid admin token")
	}
	return claims, nil
}

// AdminMiddleware guards the /admin routes. Requests without a valid staff
// token are rejected before they reach any handler.
func AdminMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := VerifyAdminToken(secret, rawToken)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminIDKey, claims.Subject)
			ctx = context.WithValue(ctx, adminRoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminID returns the staff account behind the request, or "".
func AdminID(ctx context.Context) string {
	if id, ok := ctx.Value(adminIDKey).(string); ok {
		return id
	}
	return ""
}

// AdminRole returns the staff role claim, or "".
func AdminRole(ctx context.Context) string {
	if role, ok := ctx.Value(adminRoleKey).(string); ok {
		return role
	}
	return ""
}
