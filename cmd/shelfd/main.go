package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/backend"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	level := flag.String("log-level", "INFO", "log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	if err := run(*addr, *level); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, level string) error {
	logger := adapter.NewConsoleLogger(os.Stderr, level)

	srv := &http.Server{
		Addr:              addr,
		Handler:           backend.NewServer(backend.NewMemoryStore(), logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
