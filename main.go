// Package main library management API.
//
// @title           Library Management API
// @version         1.0
// @description     Library backend: catalog, borrow/return ledger, live availability updates.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"librarymgmt/app/echoServer"
	authctrl "librarymgmt/app/echoServer/controller/auth"
	bookctrl "librarymgmt/app/echoServer/controller/book"
	lendingctrl "librarymgmt/app/echoServer/controller/lending"
	wsctrl "librarymgmt/app/echoServer/controller/ws"
	"librarymgmt/app/echoServer/validation"
	"librarymgmt/config"
	bookrepo "librarymgmt/repository/book"
	txrepo "librarymgmt/repository/transaction"
	userrepo "librarymgmt/repository/user"
	authsvc "librarymgmt/service/auth"
	booksvc "librarymgmt/service/book"
	lendingsvc "librarymgmt/service/lending"
	"librarymgmt/service/notify"
	"librarymgmt/util/database"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	tr := txrepo.New(db)

	// notification hub, torn down on shutdown
	hub := notify.NewHub(log)

	// services
	as := authsvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	ls := lendingsvc.New(db, br, tr, hub)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	lendingC := &lendingctrl.Controller{Svc: ls, V: v, Log: log}
	wsC := &wsctrl.Controller{Hub: hub, Secret: cfg.JWTSecret, Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{"status": "ok"})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:      authC,
		Book:      bookC,
		Lending:   lendingC,
		WS:        wsC,
		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	go func() {
		log.Info("starting server", "port", port, "env", cfg.Env)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	hub.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
