package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ES-COCO/es-coco/internal/app"
	"github.com/ES-COCO/es-coco/internal/config"
	"github.com/ES-COCO/es-coco/internal/db"
	"github.com/ES-COCO/es-coco/internal/logging"
	"github.com/ES-COCO/es-coco/internal/transcript"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tea "github.com/charmbracelet/bubbletea"
)

var version = "dev"

// rootCmd runs the TUI
var rootCmd = &cobra.Command{
	Use:           "escoco",
	Short:         "Browse code-switched English/Spanish transcripts",
	Long:          `Browse segments of the ES-COCO corpus, highlighting where speakers switch between English and Spanish.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// The terminal belongs to the TUI, so logs only go to the file.
		log, err := logging.New(logging.Options{FilePath: cfg.LogFile, Debug: cfg.Debug})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		m := app.New(app.Options{
			Source:   cfg.Database,
			CacheDir: cfg.CacheDir,
			Logger:   log.Named("tui"),
		})
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("database", "", "SQLite file or http(s) URL (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if database, _ := cmd.Flags().GetString("database"); database != "" {
		cfg.Database = database
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// openAssembler loads the database named by cfg and wraps it in an
// assembler. The caller closes the returned store.
func openAssembler(ctx context.Context, cfg *config.Config, log *zap.Logger) (*db.Store, *transcript.Assembler, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	store, err := db.Load(ctx, cfg.Database, cfg.CacheDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load database: %w", err)
	}
	log.Info("database loaded", zap.String("source", cfg.Database))
	return store, transcript.NewAssembler(store, log.Named("assembler")), nil
}
