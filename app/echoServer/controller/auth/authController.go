package auth

import (
	"log/slog"
	"net/http"

	"librarymgmt/app/echoServer/jwtx"
	"librarymgmt/model"
	authsvc "librarymgmt/service/auth"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc authsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// Login
// @Summary      Login
// @Description  Login with username + password, returns JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      500  {object}  map[string]any
// @Router       /auth/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq

	if err := c.Bind(&req); err != nil {
		ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if ct.V != nil {
		if err := ct.V.Struct(req); err != nil {
			ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
			return echo.NewHTTPError(http.StatusBadRequest, "validation error")
		}
	} else if err := c.Validate(&req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	_, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrInvalidCreds:
			return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
		default:
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			ct.Log.Error("login failed", "err", err, "req_id", rid, "path", c.Path())
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}

// CreateUser
// @Summary      Create user
// @Description  Admin only: create a user with role admin or member
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body  model.CreateUserReq  true  "User payload"
// @Success      201  {object}  model.User
// @Failure      400  {object}  map[string]any
// @Failure      403  {object}  map[string]any
// @Failure      409  {object}  map[string]any "username already taken"
// @Router       /users [post]
func (ct *Controller) CreateUser(c echo.Context) error {
	if jwtx.RoleFromContext(c) != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "admin privilege required"})
	}

	var req model.CreateUserReq
	if err := c.Bind(&req); err != nil {
		ct.Log.Warn("bind failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if ct.V != nil {
		if err := ct.V.Struct(req); err != nil {
			ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
			return echo.NewHTTPError(http.StatusBadRequest, "validation error")
		}
	} else if err := c.Validate(&req); err != nil {
		ct.Log.Warn("validation failed", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	u, err := ct.Svc.CreateUser(c.Request().Context(), req)
	if err != nil {
		switch authsvc.Code(err) {
		case authsvc.ErrUsernameTaken:
			return echo.NewHTTPError(http.StatusConflict, "username already taken")
		case authsvc.ErrBadInput:
			return echo.NewHTTPError(http.StatusBadRequest, "bad input")
		default:
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			ct.Log.Error("create user failed", "err", err, "req_id", rid, "path", c.Path())
			return echo.NewHTTPError(http.StatusInternalServerError, "create user failed")
		}
	}

	return c.JSON(http.StatusCreated, u)
}
