package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/event-scheduler/internal/auth"
	"github.com/frahmantamala/event-scheduler/internal/event"
	"github.com/frahmantamala/event-scheduler/internal/rbac"
	"github.com/frahmantamala/event-scheduler/internal/transport"
	"github.com/frahmantamala/event-scheduler/internal/transport/rest"
	"github.com/frahmantamala/event-scheduler/internal/transport/swagger"
	"github.com/frahmantamala/event-scheduler/internal/user"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	app, err := newApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	router, err := setupRoutes(app)
	if err != nil {
		app.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		app.Logger.Info("starting HTTP server", "address", addr, "driver", cfg.Database.Driver)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		app.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			app.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("server failed to start", "error", err)
			app.Close()
			os.Exit(1)
		}
	}

	app.Logger.Info("server stopped")
}

func setupRoutes(app *application) (*chi.Mux, error) {
	sqlDB, err := app.DB.DB()
	if err != nil {
		return nil, err
	}

	base := transport.NewBaseHandler(app.Logger)
	handlers := rest.Handlers{
		Health: rest.NewHealthHandler(sqlDB, app.Config.Database.Driver),
		Auth:   auth.NewHandler(app.Auth, app.Logger),
		Guard:  auth.NewRBACAuthorization(app.Gate, base),
		Users:  user.NewHandler(base, app.Users),
		RBAC:   rbac.NewHandler(base, app.RBAC),
		Events: event.NewHandler(base, app.Events, app.Lifecycle),
	}

	// A missing document only disables the Swagger UI.
	doc, err := swagger.Load(context.Background(), app.Config.Server.OpenAPIPath)
	if err != nil {
		app.Logger.Warn("openapi document unavailable", "path", app.Config.Server.OpenAPIPath, "error", err)
	} else {
		handlers.OpenAPI = doc
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, handlers, app.Config.Server.AllowedOrigins, app.Logger)
	return router, nil
}
