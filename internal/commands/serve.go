package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/billed-dev/billed/internal/config"
	"github.com/billed-dev/billed/internal/model"
	"github.com/billed-dev/billed/internal/server"
	"github.com/billed-dev/billed/internal/server/sqlite"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development bill service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg.Server
			if addr != "" {
				cfg.Address = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.address)")

	return cmd
}

func runServe(ctx context.Context, cfg config.ServerConfig) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database), 0o755); err != nil {
		return fmt.Errorf("creating database dir: %w", err)
	}
	store, err := sqlite.New(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database)

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(store, server.Options{
		PublicURL:      cfg.PublicURL,
		UploadDir:      cfg.UploadDir,
		JWTSecret:      cfg.JWTSecret,
		TokenTTL:       time.Duration(cfg.TokenHours) * time.Hour,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	})
	if err != nil {
		return err
	}
	if err := srv.Seed(ctx, seedAccounts(cfg.Users)); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("Bill service starting", "address", cfg.Address, "url", cfg.PublicURL)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func seedAccounts(users []config.UserConfig) []server.Account {
	accounts := make([]server.Account, 0, len(users))
	for _, u := range users {
		accounts = append(accounts, server.Account{Email: u.Email, Password: u.Password, Type: model.Role(u.Type)})
	}
	return accounts
}
