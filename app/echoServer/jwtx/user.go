package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ClaimsFromContext pulls the parsed token out of the echo-jwt middleware
// context and returns (user id, username, role).
func ClaimsFromContext(c echo.Context) (int64, string, string, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return 0, "", "", errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", "", errors.New("invalid jwt claims")
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", "", errors.New("sub missing in claims")
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	return int64(sub), username, role, nil
}

func UserIDFromContext(c echo.Context) (int64, error) {
	id, _ := c.Get("user_id").(int64)
	if id == 0 {
		return 0, errors.New("user_id not set")
	}
	return id, nil
}

func RoleFromContext(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}
