package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded identity carried by a bearer token.
type Claims struct {
	UserID   int64
	Username string
	Role     string
}

func Issue(secret string, userID int64, username, role string, ttlHours int) (string, error) {
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(time.Duration(ttlHours) * time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Parse validates tokenStr (a bare token or "Bearer <token>") and returns
// its claims. Expiry is checked by the jwt library.
func Parse(tokenStr, secret string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
		tokenStr = strings.TrimSpace(tokenStr[7:])
	}
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	out := &Claims{}
	if sub, ok := mc["sub"].(float64); ok {
		out.UserID = int64(sub)
	} else {
		return nil, ErrInvalidToken
	}
	if u, ok := mc["username"].(string); ok {
		out.Username = u
	}
	if r, ok := mc["role"].(string); ok {
		out.Role = r
	}
	return out, nil
}
