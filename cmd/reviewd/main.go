// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

// Package main is the entry point for the review queue service.
//
// reviewd exposes the human review API over HTTP and owns the audit trail
// for review decisions.
//
// Environment Variables:
//
//	GOVERNANCE_CONFIG - optional path to a YAML config file
//	GOVERNANCE_LISTEN_ADDR - HTTP listen address (default :8085)
//	GOVERNANCE_DATABASE_URL - PostgreSQL connection string (required)
//	GOVERNANCE_AUDIT_LOG_PATH - audit log path
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"relaycrm/governance/audit"
	"relaycrm/governance/config"
	"relaycrm/governance/review"
	"relaycrm/governance/shared/logger"
)

func main() {
	log := logger.New("reviewd")

	cfg, err := config.Load(os.Getenv("GOVERNANCE_CONFIG"))
	if err != nil {
		log.ErrorWithErr("", "", "failed to load configuration", err, nil)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		log.Error("", "", "GOVERNANCE_DATABASE_URL is required", nil)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.ErrorWithErr("", "", "failed to open database", err, nil)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.ErrorWithErr("", "", "failed to ping database", err, nil)
		os.Exit(1)
	}

	repo := review.NewPostgresRepository(db)
	if err := repo.Migrate(context.Background()); err != nil {
		log.ErrorWithErr("", "", "failed to run migrations", err, nil)
		os.Exit(1)
	}

	trail, err := audit.NewTrail(audit.Options{
		Path:         cfg.AuditLogPath,
		RingCapacity: cfg.AuditRingEntries,
		MaxFileBytes: cfg.AuditMaxFileMB * 1024 * 1024,
	}, log)
	if err != nil {
		log.ErrorWithErr("", "", "failed to open audit trail", err, nil)
		os.Exit(1)
	}
	defer trail.Close()

	service := review.NewService(repo, trail, log)
	service.SetExpiry(time.Duration(cfg.ReviewExpiryHours) * time.Hour)

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	review.RegisterHandlers(router, service, log)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(router)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("", "", "reviewd listening", map[string]interface{}{
			"addr": cfg.ListenAddr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.ErrorWithErr("", "", "server failed", err, nil)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("", "", "shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.ErrorWithErr("", "", "graceful shutdown failed", err, nil)
	}
}
