package auth

import (
	"consensus-chat/errors"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Interceptor authenticates room connections from the token query
// parameter. Without a secret every non-empty token is accepted and used
// as the user id, which is how development rooms run.
type Interceptor struct {
	secret []byte
}

func NewInterceptor(secret string) Interceptor {
	return Interceptor{secret: []byte(strings.TrimSpace(secret))}
}

// Authenticate returns the user behind the request token.
func (i Interceptor) Authenticate(r *http.Request) (string, error) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		return "", errors.ErrMissingCredential
	}
	if len(i.secret) == 0 {
		if userID := UserFromCredential(token); userID != "" {
			return userID, nil
		}
		return token, nil
	}
	claims, err := ValidateToken(i.secret, token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Wrap rejects unauthenticated requests with 401 and injects the user id
// into the request context for the next handler.
func (i Interceptor) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := i.Authenticate(r)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserIDKey, userID)))
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok && userID != ""
}
