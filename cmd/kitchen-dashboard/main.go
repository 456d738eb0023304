package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/upb/kitchen-dashboard/app"
	"github.com/upb/kitchen-dashboard/config"
	"github.com/upb/kitchen-dashboard/identity"
	"github.com/upb/kitchen-dashboard/internal/observability"
	"github.com/upb/kitchen-dashboard/routes"
	"go.uber.org/zap"
)

type options struct {
	addr         string
	envFiles     []string
	initSchema   bool
	version      bool
	hashPassword bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}

	flagSet := pflag.NewFlagSet("kitchen-dashboard", pflag.ContinueOnError)
	flagSet.StringVar(&opts.addr, "addr", "", "listen address, overrides SERVER_HOST and SERVER_PORT")
	flagSet.StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load before the environment (default .env)")
	flagSet.BoolVar(&opts.initSchema, "init-schema", false, "create missing tables on startup")
	flagSet.BoolVar(&opts.version, "version", false, "print the version and exit")
	flagSet.BoolVar(&opts.hashPassword, "hash-password", false, "read a password from stdin and print its bcrypt hash")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if opts.version {
		fmt.Fprintf(stdout, "kitchen-dashboard %s\n", app.Version)
		return nil
	}
	if opts.hashPassword {
		return printPasswordHash(stdin, stdout)
	}

	cfg, err := config.New(ctx, opts.envFiles...)
	if err != nil {
		return err
	}
	if opts.initSchema {
		cfg.Database.InitSchema = true
	}
	if opts.addr != "" {
		if err := applyAddr(cfg, opts.addr); err != nil {
			return err
		}
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	return serve(ctx, cfg, logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("kitchen dashboard listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("version", app.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := deps.Close(shutdownCtx); err != nil {
		logger.Error("dependency shutdown failed", zap.Error(err))
	}

	logger.Info("server stopped")
	return runErr
}

// applyAddr splits a host:port listen address into the server config
func applyAddr(cfg *config.Config, addr string) error {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid --addr port %q", portStr)
	}
	cfg.Server.Host = host
	cfg.Server.Port = port
	return nil
}

func printPasswordHash(stdin io.Reader, stdout io.Writer) error {
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	hash, err := identity.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}
