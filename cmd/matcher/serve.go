package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/provider-matcher/internal/config"
	"github.com/jonathan/provider-matcher/internal/server"
	"github.com/jonathan/provider-matcher/internal/server/ratelimit"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Start an HTTP server that exposes the matcher over REST. Set ACCESS_SECRET_HASH and JWT_SECRET to require a login.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			// Load both pools up front so a bad source fails at startup.
			if _, err := a.matcher.Dataset(ctx); err != nil {
				return err
			}

			access, err := config.NewAccessConfig()
			if err != nil {
				return err
			}
			var jwtConfig *config.JWTConfig
			if access.Enabled() {
				if jwtConfig, err = config.NewJWTConfig(); err != nil {
					return err
				}
			} else {
				a.logger.Warn("ACCESS_SECRET_HASH is not set; the API is open")
			}

			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}

			srv, err := server.New(server.Config{
				Port:           a.cfg.Port,
				AllowedOrigins: a.cfg.AllowedOrigins,
				Access:         access,
				JWT:            jwtConfig,
				RateLimit:      ratelimit.LoadConfig(),
				WriteTimeout:   a.cfg.RequestTimeout() + 30*time.Second,
			}, a.matcher, a.logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			a.logger.Info("serving matcher API", zap.Int("port", a.cfg.Port))
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "Port to listen on (overrides config)")
	return cmd
}
