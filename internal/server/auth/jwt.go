package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the session id in the token ID and the user id in the
// subject. The token only proves the cookie was issued by us; whether the
// session is still alive is decided by the sessions table.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a session cookie value with HS256.
func GenerateToken(sessionID string, userID int64, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns the session and user ids.
// Expired tokens yield common.ErrSessionExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (sessionID string, userID int64, err error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", 0, common.ErrSessionExpired
		}
		return "", 0, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.ID == "" {
		return "", 0, common.ErrInvalidToken
	}

	userID, err = strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return "", 0, common.ErrInvalidToken
	}

	return claims.ID, userID, nil
}
