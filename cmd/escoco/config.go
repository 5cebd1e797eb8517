package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ES-COCO/es-coco/internal/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for escoco.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [DATABASE]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file pointing at a transcript database path or URL.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var database string
		if len(args) > 0 {
			database = args[0]
		}

		if err := config.InitConfig(database); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		fmt.Printf("Created configuration file: %s\n", configPath)
		if database == "" {
			fmt.Println("Please edit the database setting in this file to point at your transcript database.")
		}

		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration file path and effective settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration file: %s\n\n", configPath)

		// Load and display current config
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("database:    %s\n", cfg.Database)
		fmt.Printf("cache_dir:   %s\n", cfg.CacheDir)
		fmt.Printf("log_file:    %s\n", cfg.LogFile)
		fmt.Printf("listen_addr: %s\n", cfg.ListenAddr)
		fmt.Printf("debug:       %t\n", cfg.Debug)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
