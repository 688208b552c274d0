package echoServer

import (
	"net/http"

	"librarymgmt/app/echoServer/controller/auth"
	"librarymgmt/app/echoServer/controller/book"
	"librarymgmt/app/echoServer/controller/lending"
	"librarymgmt/app/echoServer/controller/ws"
	"librarymgmt/app/echoServer/jwtx"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Auth      *auth.Controller
	Book      *book.Controller
	Lending   *lending.Controller
	WS        *ws.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	e.POST("/auth/login", c.Auth.Login)
	e.GET("/books", c.Book.List)
	e.GET("/books/:id", c.Book.Detail)

	// Observer endpoint does its own credential check from the query string.
	e.GET("/ws/admin", c.WS.Admin)

	// Auth
	auth := e.Group("")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// identity extraction
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, username, role, err := jwtx.ClaimsFromContext(ctx)
			if err != nil {
				reqID := ctx.Response().Header().Get(echo.HeaderXRequestID)
				ctx.Logger().Warnf("[AUTH] bad claims req_id=%s err=%v", reqID, err)
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			ctx.Set("username", username)
			ctx.Set("role", role)
			return next(ctx)
		}
	})

	// Users (admin)
	auth.POST("/users", c.Auth.CreateUser)

	// Catalog mutation (admin)
	auth.POST("/books", c.Book.Create)
	auth.PUT("/books/:id", c.Book.Update)
	auth.DELETE("/books/:id", c.Book.Delete)

	// Lending
	auth.POST("/borrow", c.Lending.Borrow)
	auth.POST("/return", c.Lending.Return)
	auth.GET("/me/transactions", c.Lending.MyHistory)
	auth.GET("/admin/transactions", c.Lending.AdminHistory)
}
