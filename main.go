package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shreyaadani/Stier-kg-resume/pkg/app"
	"github.com/shreyaadani/Stier-kg-resume/pkg/config"
	"github.com/shreyaadani/Stier-kg-resume/pkg/logging"
	"github.com/shreyaadani/Stier-kg-resume/pkg/web"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("resume-kg", pflag.ExitOnError)
	envFile := flags.String("env", ".env", "Path to environment file")
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Error loading env file %s: %v\n", *envFile, err)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	skills, err := app.Skills(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load skills dictionary")
	}

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("NER model unavailable")
	}

	server := web.NewServer(pipeline, web.Options{
		Skills:      skills,
		UploadLimit: cfg.UploadLimit(),
		Physics:     cfg.Physics,
		GraphHeight: cfg.GraphHeight,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.ListenAddr(),
			"skills": len(skills),
		}).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	if cfg.OpenBrowser {
		openBrowser(fmt.Sprintf("http://%s", cfg.ListenAddr()), logger)
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.WithField("signal", sig.String()).Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Error during server shutdown")
	}
	logger.Info("Server shutdown complete")
}

func openBrowser(url string, logger *logrus.Logger) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logger.WithField("os", runtime.GOOS).Warn("Cannot open browser on this platform")
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logger.WithError(err).Warn("Failed to open browser")
	}
}
