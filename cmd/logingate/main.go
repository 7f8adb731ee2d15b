package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/p-kaiser/logingate/internal/auth"
	"github.com/p-kaiser/logingate/internal/listen"
	"github.com/p-kaiser/logingate/internal/metrics"
	"github.com/p-kaiser/logingate/internal/proxy"
	"github.com/p-kaiser/logingate/internal/server"
)

func main() {
	root := &cobra.Command{
		Use:           "logingate",
		Short:         "Dummy login handler for testing proxy-auth deployments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), proxyCmd(), checkCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve [socket]",
		Short: "Run the login handler on a TCP port or unix socket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Server.UnixSocket = args[0]
			}

			logger := initLogger(cfg.Environment)

			ln, cleanup, err := listen.New(listen.Options{
				Host:                  cfg.Server.Host,
				Port:                  cfg.Server.Port,
				UnixSocket:            cfg.Server.UnixSocket,
				UnixSocketPermissions: os.FileMode(cfg.Server.UnixSocketPermissions),
			})
			if err != nil {
				return err
			}
			defer cleanup()

			userAuth := auth.NewService(logger, cfg.table())
			handler := server.NewLoginHandler(logger, userAuth, metrics.New(), os.Stdout)

			logger.Info("login handler listening", slog.String("addr", ln.Addr().String()))

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			handler.Run(ctx, ln)

			return nil
		},
	}
}

func proxyCmd() *cobra.Command {
	var (
		templateUser string
		headers      []string
	)

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Forward requests to a backend, injecting auth headers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}

			logger := initLogger(cfg.Environment)

			p, err := proxy.New(logger, cfg.Proxy.Target, cfg.table(), templateUser, headers)
			if err != nil {
				return err
			}

			addr := "127.0.0.1:" + cfg.Proxy.Port
			logger.Info("auth proxy listening", slog.String("addr", addr), slog.String("target", cfg.Proxy.Target))

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			p.Run(ctx, addr)

			return nil
		},
	}

	cmd.Flags().StringVarP(&templateUser, "user", "u", "", "inject the identity headers of this test user")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "header to set when forwarding (e.g. 'x-tobira-username: cGV0ZXI=')")

	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and credential table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}

			table := cfg.table()
			if err := table.Check(); err != nil {
				return err
			}

			fmt.Printf("config ok, %d users in credential table\n", len(table))

			return nil
		},
	}
}

func initLogger(env string) *slog.Logger {
	if env == "dev" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
