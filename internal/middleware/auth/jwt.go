package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// токены выпускает NewToken (админский /api/admin/tokens), JWT их проверяет
const accessTokenCookie = "access_token"

var ErrInvalidToken = errors.New("invalid token")

type Principal struct {
	UserID uuid.UUID
	Role   Role
	// Login заполняется только для basic auth админки
	Login string
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// ParseToken проверяет подпись HS256 и срок, sub должен быть UUID.
func ParseToken(raw, secret string) (Principal, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return Principal{}, ErrInvalidToken
	}

	id, err := uuid.Parse(strings.TrimSpace(claims.Subject))
	if err != nil {
		return Principal{}, fmt.Errorf("%w: sub is not a uuid", ErrInvalidToken)
	}

	role, ok := ParseRole(claims.Role)
	if !ok {
		return Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return Principal{UserID: id, Role: role}, nil
}

// NewToken подписывает HS256 токен с ролью в claims.
func NewToken(userID uuid.UUID, role Role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func extractToken(r *http.Request) string {
	if authz := strings.TrimSpace(r.Header.Get("Authorization")); len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}

	if c, err := r.Cookie(accessTokenCookie); err == nil {
		return strings.TrimSpace(c.Value)
	}

	return ""
}

// JWT требует валидный токен из заголовка Bearer или cookie access_token.
func JWT(secret string) func(http.Handler) http.Handler {
	if strings.TrimSpace(secret) == "" {
		panic("auth.JWT: empty secret")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", "តម្រូវឱ្យផ្ទៀងផ្ទាត់អត្តសញ្ញាណ")
				return
			}

			p, err := ParseToken(raw, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token", "សញ្ញាសម្ងាត់មិនត្រឹមត្រូវ ឬផុតកំណត់")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// writeError тело в формате response.ErrorBody
func writeError(w http.ResponseWriter, status int, code, message, messageKM string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    false,
		"error_code": code,
		"message":    message,
		"message_km": messageKM,
	})
}
