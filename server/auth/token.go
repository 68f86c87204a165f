// Package auth issues and verifies access tokens and carries the
// authenticated user id through the request context.
package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// Issuer is the iss claim of every access token.
	Issuer = "tripprefs"
	// AccessTokenDuration is the lifetime of a token minted by GenerateAccessToken.
	AccessTokenDuration = 24 * time.Hour
)

// ClaimsMessage is the claim set of an access token. The subject holds the user id.
type ClaimsMessage struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an HS256 token for the given user.
func GenerateAccessToken(userID int32, username string, expirationTime time.Time, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("secret is required")
	}
	if userID <= 0 {
		return "", errors.Errorf("invalid user id %d", userID)
	}

	now := time.Now()
	claims := &ClaimsMessage{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   strconv.Itoa(int(userID)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if !expirationTime.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expirationTime)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// ParseAccessToken verifies the token and returns the user id it was issued for.
func ParseAccessToken(tokenString string, secret []byte) (int32, *ClaimsMessage, error) {
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return 0, nil, errors.Wrap(err, "invalid access token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 32)
	if err != nil || userID <= 0 {
		return 0, nil, errors.Errorf("invalid subject %q", claims.Subject)
	}
	return int32(userID), claims, nil
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>" header.
func ExtractBearerToken(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
