package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/ibedc/change-management-backend/internal/config"
	"github.com/ibedc/change-management-backend/internal/logging"
	"github.com/ibedc/change-management-backend/internal/repository/postgres"
	"github.com/ibedc/change-management-backend/internal/service"
	transporthttp "github.com/ibedc/change-management-backend/internal/transport/http"
	"github.com/ibedc/change-management-backend/internal/transport/mail"
	"github.com/ibedc/change-management-backend/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		if w, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr); err == nil {
			log.SetOutput(io.MultiWriter(os.Stdout, w))
			defer w.Close()
		} else {
			log.Printf("logstash disabled: %v", err)
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	accounts := postgres.NewAccountRepo(db)
	mailer := mail.NewResetCodeMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	auth := service.NewAuthService(accounts, mailer, jwtManager, cfg.PasswordResetTTL, cfg.PasswordResetCodeLength)

	e := transporthttp.NewRouter(cfg.AllowOrigins)
	transporthttp.RegisterAuthRoutes(e, auth)
	transporthttp.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
