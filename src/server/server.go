// Package server wires the ilix HTTP API together: config, Mongo
// connection and index creation, store adapters, the SSE broadcaster,
// handlers, router and graceful lifecycle.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ilix/server/src/config"
	"github.com/ilix/server/src/database"
	"github.com/ilix/server/src/handlers"
	"github.com/ilix/server/src/middleware"
	"github.com/ilix/server/src/sse"
	"github.com/ilix/server/src/store"
	"github.com/sirupsen/logrus"
)

// Server holds all dependencies for the API process.
type Server struct {
	cfg    *config.Config
	logger *logrus.Logger
	router *gin.Engine

	db          *database.DB
	stores      *store.Stores
	broadcaster *sse.Broadcaster
}

// New creates and initializes all server dependencies, failing fast if
// any dependency (currently: Mongo) is unreachable.
func New(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger}

	if err := s.initDatabase(); err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	if err := s.initStores(); err != nil {
		return nil, fmt.Errorf("store init failed: %w", err)
	}

	s.broadcaster = sse.New(logger)

	s.initRouter()
	s.registerRoutes()

	return s, nil
}

func (s *Server) initDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	s.db = db

	if err := s.db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("index creation failed: %w", err)
	}

	return nil
}

func (s *Server) initStores() error {
	stores, err := store.New(s.cfg, s.db)
	if err != nil {
		return err
	}
	s.stores = stores
	return nil
}

func (s *Server) initRouter() {
	if s.cfg.Prod {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Middleware chain (onion principle): recovery wraps everything,
	// request id/audit logging observe every request including ones that
	// later fail auth.
	s.router.Use(
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.AuditLogger(s.logger),
	)
}

func (s *Server) registerRoutes() {
	h := handlers.NewHandler(s.stores, s.broadcaster, s.db, s.cfg.Salt, s.cfg.HashRound, s.cfg.TempDir, s.logger)
	h.Register(s.router)
}

// Run starts the HTTP server and blocks until a shutdown signal arrives.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:           s.cfg.BindAddr(),
		Handler:        s.router,
		ReadTimeout:    600 * time.Second,
		WriteTimeout:   600 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		s.logger.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info("shutting down server...")
	s.broadcaster.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("server forced to shutdown")
		return err
	}

	s.logger.Info("server exited")
	return nil
}

// Close releases the Mongo connection.
func (s *Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.db.Close(ctx); err != nil {
		s.logger.WithError(err).Warn("error closing mongo connection")
	}
}
