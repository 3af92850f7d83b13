package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pthm/hxstore"
	hxstoreecho "github.com/pthm/hxstore/adapters/echo"
	"github.com/pthm/hxstore/internal/demo"
	"github.com/pthm/hxstore/internal/logging"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo application",
	Long: `Starts an HTTP server with the demo counter and todo models. The page is
rendered at / and actions are dispatched over HTMX to /_s/{domain}/{action}.
Prometheus metrics are exposed at /metrics unless disabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := loadConfig(path)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)

		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger := logging.New(level)

		e, err := newServer(cfg, logger)
		if err != nil {
			return err
		}
		return run(e, cfg.Addr, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().String("key", "", "Payload signing key (random when empty)")
	serveCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics at /metrics")
}

// newServer builds the demo store and the echo instance serving it.
func newServer(cfg Config, logger *slog.Logger) (*echo.Echo, error) {
	opts := []hxstore.Option{hxstore.WithLogger(logger)}
	if cfg.Key != "" {
		opts = append(opts, hxstore.WithKey([]byte(cfg.Key)))
	}

	var reg *prometheus.Registry
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m, err := hxstore.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, hxstore.WithObserver(m))
	}

	store, err := hxstore.New(demo.Models(), opts...)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/", func(c echo.Context) error {
		return hxstoreecho.Render(c, store, demo.Page(store))
	})
	hxstoreecho.Mount(e, store, demo.App(store))
	if reg != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	return e, nil
}

func run(e *echo.Echo, addr string, logger *slog.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting hxstore demo", "addr", addr)
		serverErrors <- e.Start(addr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)

	case sig := <-shutdown:
		logger.Info("shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
			return e.Close()
		}
		logger.Info("server stopped")
		return nil
	}
}
