package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/Shubham20040627/Smart-Account-Breach-System/config"
	"github.com/Shubham20040627/Smart-Account-Breach-System/db"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/handler"
	repo "github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/repository/postgres"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/auth/service"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/logicdemo"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/notify"
	"github.com/Shubham20040627/Smart-Account-Breach-System/internal/realtime"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	pool, err := db.NewPostgresPool(context.Background(), cfg.DBURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	accountRepo := repo.NewPostgresRepository(pool)
	tokenService := service.NewTokenService(cfg.AccessTokenSecret, cfg.AccessExpiryMin)

	var notifier notify.Notifier
	if cfg.ResendAPIKey != "" {
		notifier = notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom)
	} else {
		notifier = &notify.LogNotifier{Log: log}
	}

	hub := realtime.NewHub(log)
	securityService := service.NewSecurityService(accountRepo, tokenService, notifier, hub, cfg, log)
	demo := logicdemo.NewRunner("dsa_logic_demo/SmartSecurityLogic.cpp", "dsa_logic_demo/logic_demo", log)
	authHandler := handler.NewAuthHandler(securityService, tokenService, demo, log)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.ClientURL,
		AllowCredentials: true,
	}))

	handler.RegisterRoutes(app, authHandler, hub)

	log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
