// Command widget runs the interactive character chat client.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ai-character-chat/widget/identity"
	"ai-character-chat/widget/pkg/config"
	"ai-character-chat/widget/pkg/di"
	"ai-character-chat/widget/pkg/logger"
	"ai-character-chat/widget/ui"
)

var (
	flagBackendURL string
	flagStorage    string
	flagLogLevel   string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Chat with AI characters from your terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWidget()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagBackendURL, "backend-url", "", "chat service base URL (overrides WIDGET_BACKEND_URL)")
	cmd.PersistentFlags().StringVar(&flagStorage, "storage", "", "identity storage path (overrides WIDGET_STORAGE_PATH)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(resetCmd())
	return cmd
}

func loadConfig() *config.Config {
	godotenv.Load()
	cfg := config.New()
	if flagBackendURL != "" {
		cfg.Backend.URL = flagBackendURL
	}
	if flagStorage != "" {
		cfg.Storage.Path = flagStorage
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	return cfg
}

func runWidget() error {
	cfg := loadConfig()

	// Logs go to a file so they do not fight the TUI for the terminal.
	logOutput, err := os.OpenFile(cfg.Storage.Path+".log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	logConfig := logger.Config{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.Format == "json",
	}
	if err == nil {
		defer logOutput.Close()
		logConfig.Output = logOutput
	}
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	deps, err := di.New(cfg, log)
	if err != nil {
		return err
	}

	log.Info("widget starting", "backend", cfg.Backend.URL, "device_id", deps.Store.DeviceID())

	program := tea.NewProgram(ui.New(deps), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("widget exited with error: %w", err)
	}
	return nil
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the cached user id and device fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			log := logger.New(logger.DefaultConfig())

			store, err := identity.Open(cfg.Storage.Path, log)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("identity cleared")
			return nil
		},
	}
}
