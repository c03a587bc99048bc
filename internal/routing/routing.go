package routing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"interprep/pkg/claims"
	"interprep/pkg/handlers"
	"interprep/pkg/middleware"
)

// NewRouter mounts the auth API under /api.
func NewRouter(userHandler *handlers.Handler, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.Panic(logger))

	InitRoutes(api, userHandler, logger)
	ServeFallback(r, logger)
	return r
}

func InitRoutes(api *mux.Router, userHandler *handlers.Handler, logger *slog.Logger) {
	requireAccess := middleware.CheckJWT(userHandler.Secret, claims.TypeAccess, logger)
	requireRefresh := middleware.CheckJWT(userHandler.Secret, claims.TypeRefresh, logger)

	authRouter := api.PathPrefix("/auth").Subrouter()

	/* open */
	authRouter.HandleFunc("/register", userHandler.Register).Methods(http.MethodPost).Name("register")
	authRouter.HandleFunc("/login", userHandler.Login).Methods(http.MethodPost).Name("login")

	/* token protected */
	authRouter.Handle("/refresh", requireRefresh(http.HandlerFunc(userHandler.Refresh))).Methods(http.MethodPost).Name("refresh")
	authRouter.Handle("/logout", requireAccess(http.HandlerFunc(userHandler.Logout))).Methods(http.MethodPost).Name("logout")
	authRouter.Handle("/me", requireAccess(http.HandlerFunc(userHandler.Me))).Methods(http.MethodGet).Name("me")
}

func ServeFallback(r *mux.Router, logger *slog.Logger) {
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("no route", "method", r.Method, "path", r.URL.Path)
		handlers.WriteResp(w, logger, map[string]any{
			"message": "Not found",
			"details": "No endpoint at " + r.URL.Path,
		}, http.StatusNotFound)
	})
}

// StartServer serves until ctx is done, then shuts down gracefully.
func StartServer(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("auth server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
