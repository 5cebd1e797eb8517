package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ES-COCO/es-coco/internal/api"
	"github.com/ES-COCO/es-coco/internal/logging"
	"github.com/ES-COCO/es-coco/internal/mcpserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd serves the JSON API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve transcripts over HTTP",
	Long:  `Serve assembled segments as a read-only JSON API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
			cfg.ListenAddr = addr
		}

		log, err := logging.New(logging.Options{FilePath: cfg.LogFile, Console: true, Debug: cfg.Debug})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, assembler, err := openAssembler(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		srv := api.New(cfg.ListenAddr, assembler, log.Named("api"))
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Run()
		}()

		select {
		case err := <-errCh:
			return fmt.Errorf("server stopped: %w", err)
		case <-ctx.Done():
		}

		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// mcpCmd serves MCP tools on stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve transcript tools over MCP (stdio)",
	Long:  `Run an MCP server on stdin/stdout exposing segment lookup tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// stdout carries the protocol.
		log, err := logging.New(logging.Options{FilePath: cfg.LogFile, Debug: cfg.Debug})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		store, assembler, err := openAssembler(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		log.Info("mcp server starting", zap.String("version", version))
		return mcpserver.New(assembler, version, log.Named("mcp")).ServeStdio()
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}
