package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gatherly/apiserver/config"
	"github.com/gatherly/apiserver/internal/db"
	"github.com/gatherly/apiserver/internal/handlers"
	"github.com/gatherly/apiserver/internal/mq"
	"github.com/gatherly/apiserver/internal/services"
	"github.com/gatherly/apiserver/internal/storage"
	"github.com/gatherly/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and its resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New constructs a Server with its storage, broker, and route wiring.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	images, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("storage: %w", err)
	}
	if images != nil {
		if err := images.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("storage bucket: %w", err)
		}
	}

	broker, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("mq: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	eventRepo := store.NewEventRepository(dbConn)
	registrationRepo := store.NewRegistrationRepository(dbConn)

	userService := services.NewUserService(userRepo)
	eventService := services.NewEventService(eventRepo)
	registrationService := services.NewRegistrationService(registrationRepo)

	var activity *services.ActivityPublisher
	if broker != nil {
		activity = services.NewActivityPublisher(broker)
	}

	authMiddleware := handlers.RequireAuth([]byte(jwtSecret))

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.NotFound(handlers.NotFound)
	router.Get("/", handlers.Root)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService, jwtSecret)
	})
	router.Route("/events", func(r chi.Router) {
		handlers.EventRouter(r, eventService, registrationService, activity, images, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown closes the HTTP server and its resources.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	return s.httpServer.Close()
}
