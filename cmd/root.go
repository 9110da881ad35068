// Package cmd holds the facecrop command tree.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"facecrop-go/internal/config"
)

// Version is the application version, overridable with -ldflags.
var Version = "dev"

var (
	// cfg is loaded once for every subcommand.
	cfg *config.Config

	configPath     string
	logLevel       string
	loggingCleanup func()
)

var rootCmd = &cobra.Command{
	Use:     "facecrop",
	Short:   "Periodically crop faces from a webcam feed into numbered image files",
	Version: Version,
	// Without a subcommand the desktop window opens.
	RunE:          runGUI,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Printf("[Main] WARNING: Config load error: %v (using defaults)", err)
			loaded = config.DefaultConfig()
		}
		if logLevel != "" {
			loaded.LogLevel = strings.ToUpper(logLevel)
		}
		cfg = loaded

		cleanup, err := config.ConfigureLogging(cfg)
		loggingCleanup = cleanup
		if err != nil {
			log.Printf("[Main] WARNING: Logging setup error: %v", err)
		}
		log.Printf("[Main] facecrop %s (%s) starting: source=%s device=%d classifier=%s",
			Version, cmd.Name(), cfg.CameraSource, cfg.DeviceIndex, cfg.Classifier)

		ok, warnings := cfg.Validate()
		if !ok {
			log.Printf("[Main] WARNING: Config validation failed!")
		}
		for _, w := range warnings {
			log.Printf("[Main] WARNING: %s", w)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	},
}

// Execute runs the command tree with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.ini (default $FACECROP_CONFIG or ./config.ini)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override [logging] level (DEBUG or INFO)")
}
