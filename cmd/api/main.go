package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/BizNestAI/backoffice/internal/config"
	"github.com/BizNestAI/backoffice/internal/handler"
	"github.com/BizNestAI/backoffice/internal/integrations/bankfeed"
	"github.com/BizNestAI/backoffice/internal/middleware"
	"github.com/BizNestAI/backoffice/internal/repository"
	"github.com/BizNestAI/backoffice/internal/service"
	"github.com/BizNestAI/backoffice/internal/utils/email"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	feed := bankfeed.NewClient(cfg, logger)
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, feed, logger, cfg)
	digest := service.NewDigest(repo, mailer, logger, cfg.RunwayThreshold)
	h := handler.NewHandler(svc, logger)

	// Weekly cash-runway digest
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.DigestCron, digest.Run); err != nil {
		logger.Fatalf("Failed to schedule digest job: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/scenarios/preview", h.PreviewScenario).Methods("POST")
	authRouter.HandleFunc("/scenarios", h.CreateScenario).Methods("POST")
	authRouter.HandleFunc("/scenarios", h.ListScenarios).Methods("GET")
	authRouter.HandleFunc("/scenarios/{id}", h.GetScenario).Methods("GET")
	authRouter.HandleFunc("/scenarios/{id}", h.UpdateScenario).Methods("PUT")
	authRouter.HandleFunc("/scenarios/{id}", h.DeleteScenario).Methods("DELETE")
	authRouter.HandleFunc("/businesses/{id}/feed", h.ConnectFeed).Methods("POST")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
