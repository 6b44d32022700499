package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/KexinAnswer/gitbook/internal/app"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/config"
	"github.com/KexinAnswer/gitbook/internal/infrastructure/server"
)

func main() {
	configPath := flag.String("config", "", "YAML or TOML configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment is read")
	flag.Parse()

	if err := run(*configPath, *envFile); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.LoadPath(configPath)
	if err != nil {
		return err
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.Info("Starting render service",
		zap.String("addr", cfg.Server.Address()),
		zap.String("version", server.Version),
	)
	if err := server.NewServer(a).Run(ctx); err != nil {
		a.Logger.Error("Server error", zap.Error(err))
		return err
	}
	a.Logger.Info("Server stopped")
	return nil
}
