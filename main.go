package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"mdxserver/config"
	"mdxserver/handler"
	"mdxserver/logging"
	"mdxserver/manager"
	"mdxserver/mdx"
)

var version = "dev"

func main() {
	cli, err := config.ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cli.Version {
		fmt.Println(version)
		return
	}

	log := logging.GetLogger()

	cfg, err := config.LoadConfig(cli.ConfigFile, cli.Flags())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if cli.Debug {
		level = logrus.DebugLevel
	}
	logging.InitLogger(level, cfg.Log.Format)

	compiler, err := mdx.NewCompiler(mdx.Options{
		ResolveDir:     cfg.Compiler.ResolveDir,
		Globals:        cfg.Compiler.Globals,
		Minify:         cfg.Compiler.Minify,
		SanitizeErrors: cfg.Compiler.SanitizeErrors,
		Extensions:     cfg.Compiler.Extensions,
		Timeout:        cfg.Compiler.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to create compiler: %v", err)
	}

	// Bound the number of builds running at once
	cm := manager.NewConcurrencyManager(cfg.Compiler.MaxConcurrent, cfg.Compiler.QueueTimeout)
	defer cm.Shutdown()

	compileHandler := handler.NewCompileHandler(compiler, cm, cfg.BodyLimit)

	server := &http.Server{
		Addr:              cfg.ListenAddress(),
		Handler:           handler.NewRouter(compileHandler, cfg.AllowedOrigins()),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("MDX compilation server listening on port %d", cfg.Port)
		log.Infof("Allowing requests from origin: %s", cfg.FrontendURL)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	case <-ctx.Done():
		log.Infoln("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Graceful shutdown failed: %v", err)
		}
	}
}
