package auth

import (
	"consensus-chat/errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var secret = []byte("a_development_secret_that_is_long_enough")

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "alice", time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(secret, token)
	req.NoError(err)
	req.Equal("alice", claims.UserID)
	req.Equal(issuer, claims.Issuer)

	// A token signed with another secret is refused
	_, err = ValidateToken([]byte("another_secret"), token)
	req.ErrorIs(err, errors.ErrInvalidToken)

	_, err = GenerateToken(secret, " ", time.Hour)
	req.ErrorIs(err, errors.ErrMissingUserID)
}

func TestValidateToken_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(secret, "alice", -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(secret, token)
	req.ErrorIs(err, errors.ErrInvalidToken)
	req.ErrorIs(err, jwt.ErrTokenExpired)
}

func TestInspectCredential(t *testing.T) {
	req := require.New(t)
	now := time.Now()

	valid, err := GenerateToken(secret, "alice", time.Hour)
	req.NoError(err)
	expired, err := GenerateToken(secret, "alice", -time.Hour)
	req.NoError(err)

	tests := []struct {
		name       string
		credential string
		expected   error
	}{
		{name: "Missing credential", credential: "", expected: errors.ErrMissingCredential},
		{name: "Blank credential", credential: "  ", expected: errors.ErrMissingCredential},
		{name: "Opaque credential", credential: "T1", expected: nil},
		{name: "Dotted but not a JWT", credential: "a.b.c", expected: nil},
		{name: "Valid JWT", credential: valid, expected: nil},
		{name: "Expired JWT", credential: expired, expected: errors.ErrCredentialExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InspectCredential(tt.credential, now)
			if tt.expected == nil {
				req.NoError(err)
				return
			}
			req.ErrorIs(err, tt.expected)
		})
	}

	req.Equal("alice", UserFromCredential(valid))
	req.Empty(UserFromCredential("T1"))
}

func TestInterceptor(t *testing.T) {
	req := require.New(t)
	token, err := GenerateToken(secret, "bob", time.Hour)
	req.NoError(err)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
	})

	tests := []struct {
		name     string
		secret   string
		target   string
		status   int
		expected string
	}{
		{name: "Signed token", secret: string(secret), target: "/api/ws/R1?token=" + token, status: http.StatusOK, expected: "bob"},
		{name: "Missing token", secret: string(secret), target: "/api/ws/R1", status: http.StatusUnauthorized},
		{name: "Opaque token with a secret", secret: string(secret), target: "/api/ws/R1?token=T1", status: http.StatusUnauthorized},
		{name: "Opaque token without secret", secret: "", target: "/api/ws/R1?token=T1", status: http.StatusOK, expected: "T1"},
		{name: "JWT without secret keeps its user", secret: "", target: "/api/ws/R1?token=" + token, status: http.StatusOK, expected: "bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			rec := httptest.NewRecorder()
			NewInterceptor(tt.secret).Wrap(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			req.Equal(tt.status, rec.Code)
			req.Equal(tt.expected, seen)
		})
	}
}
