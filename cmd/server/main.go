package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"liveparticipation/config"
	"liveparticipation/internal/adapters/auth"
	"liveparticipation/internal/adapters/email"
	httpdelivery "liveparticipation/internal/delivery/http"
	"liveparticipation/internal/delivery/http/controllers"
	"liveparticipation/internal/delivery/http/middleware"
	"liveparticipation/internal/realtime"
	"liveparticipation/internal/repository/postgres"
	"liveparticipation/internal/services"
)

const serviceTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	hub := realtime.NewHub(logger)

	eventRepo := postgres.NewEventRepository(db)
	confirmationRepo := postgres.NewConfirmationRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	pollRepo := postgres.NewPollRepository(db)

	rsvpService := services.NewRSVPService(eventRepo, confirmationRepo, waitlistRepo, hub, emailService, logger, serviceTimeout)
	checkInService := services.NewCheckInService(eventRepo, confirmationRepo, hub, logger, serviceTimeout)
	pollService := services.NewPollService(pollRepo, eventRepo, hub, logger, serviceTimeout)
	attendanceService := services.NewAttendanceService(eventRepo, confirmationRepo, pollRepo, serviceTimeout)

	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	sweeper := services.NewSweeper(checkInService, pollService, logger, cfg.NoShowSweepInterval, cfg.PollExpirySweepInterval)
	sweeper.Start(sweepCtx)

	verifier := auth.NewJWTVerifier(cfg.JWTSecret)
	mux := httpdelivery.NewRouter(
		db,
		verifier,
		controllers.NewRSVPController(logger, rsvpService),
		controllers.NewCheckInController(logger, checkInService),
		controllers.NewPollController(logger, pollService),
		controllers.NewAttendanceController(logger, attendanceService),
		controllers.NewWSController(logger, hub),
	)

	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopSweeps()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
