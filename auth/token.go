package auth

import (
	"consensus-chat/errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "consensus-chat"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a specific user.
func GenerateToken(secret []byte, userID string, authTokenDuration time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.ErrMissingUserID
	}
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(authTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	// HS256 (HMAC with SHA256), the algorithm room servers verify.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates the signature and expiration of a JWT string.
func ValidateToken(secret []byte, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.ErrInvalidToken
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, errors.ErrMissingUserID
	}
	return claims, nil
}

// InspectCredential checks a credential before a room is selected.
// The signature is not verified: only the server can do that. A JWT whose
// expiry has passed is rejected so the caller re-authenticates; anything
// that does not parse as a JWT is treated as an opaque credential.
func InspectCredential(credential string, now time.Time) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return errors.ErrMissingCredential
	}
	if strings.Count(credential, ".") != 2 {
		return nil
	}
	claims := &CustomClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return errors.ErrCredentialExpired
	}
	return nil
}

// UserFromCredential returns the user id carried by a JWT credential,
// or an empty string for opaque credentials.
func UserFromCredential(credential string) string {
	claims := &CustomClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(credential), claims); err != nil {
		return ""
	}
	return claims.UserID
}
