// Package middleware содержит HTTP middleware локального бэкенда CRM.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

const memberIDKey contextKey = "memberID"

const bearerPrefix = "Bearer "

// AuthMiddleware проверяет bearer-токен вида <memberID>.<hmac>.
type AuthMiddleware struct {
	secretKey []byte
}

// NewAuthMiddleware создаёт AuthMiddleware с указанным секретным ключом.
// Пустой ключ заменяется случайным.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
	}
}

// Middleware проверяет заголовок Authorization и добавляет идентификатор участника в контекст.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			unauthorized(w)
			return
		}

		memberID, ok := a.ParseToken(strings.TrimPrefix(header, bearerPrefix))
		if !ok {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), memberIDKey, memberID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": http.StatusText(http.StatusUnauthorized),
	})
}

// IssueToken выдаёт токен доступа для участника.
func (a *AuthMiddleware) IssueToken(memberID string) string {
	return memberID + "." + a.sign(memberID)
}

// ParseToken проверяет подпись токена и возвращает идентификатор участника.
func (a *AuthMiddleware) ParseToken(token string) (string, bool) {
	memberID, signature, found := strings.Cut(token, ".")
	if !found || memberID == "" {
		return "", false
	}

	if !hmac.Equal([]byte(signature), []byte(a.sign(memberID))) {
		return "", false
	}
	return memberID, true
}

func (a *AuthMiddleware) sign(memberID string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(memberID))
	return hex.EncodeToString(mac.Sum(nil))
}

// MemberIDFromContext извлекает идентификатор участника из контекста запроса.
func MemberIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(memberIDKey).(string)
	return id, ok
}
