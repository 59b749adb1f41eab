package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/config"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/db"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/gemini"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/pkg/logger"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageGeneration/service"
)

var configPath string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "imagegen",
		Short:        "Image generation API backed by Gemini",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config/config.yaml", "path to the config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the request ledger table in Postgres",
		RunE:  runMigrate,
	})
	return rootCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.InitConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	imageGenerationService := service.NewService(cfg, model, zl)
	if err := imageGenerationService.StartService(ctx); err != nil {
		zl.Error("service stopped", zap.Error(err))
		return err
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.InitConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Postgres.Enabled() {
		return fmt.Errorf("postgres is not configured")
	}

	dB, err := db.Open(cmd.Context(), cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	defer dB.Close()

	if err := db.Migrate(cmd.Context(), dB); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	fmt.Println("request ledger is up to date")
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("imagegen: %v", err)
	}
}
