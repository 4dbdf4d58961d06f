// commodityavg: commodity average price client
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seenimoa/commodityavg/api"
	"github.com/seenimoa/commodityavg/internal/config"
	"github.com/seenimoa/commodityavg/internal/infra"
	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set up before any command runs.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "commodityavg",
	Short: "Average commodity prices from the pricing API",
	Long: `commodityavg queries a commodity pricing API for the average price of a
resource over a date range and renders the daily series as text, charts,
or a report. It also serves the same workflow as a small web page.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logger, err = infra.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		api.Version = version
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("commodityavg %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Resources Command ---

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "List resources and their allowed intervals",
	Run: func(cmd *cobra.Command, args []string) {
		for _, r := range models.Resources() {
			intervals := make([]string, len(r.Intervals))
			for i, iv := range r.Intervals {
				intervals[i] = string(iv)
			}
			fmt.Printf("  %-12s %-18s %v\n", r.Code, r.Label, intervals)
		}
	},
}

// --- Serve Command (web shell) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web shell",
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.Server.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		srv, err := api.NewServer(cfg, logger)
		if err != nil {
			return err
		}
		fmt.Printf("🌐 commodityavg web shell on http://%s\n", cfg.Server.Addr())
		return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides server.host)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides server.port)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  commodityavg status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Today (UTC):   %s\n", utils.Today())
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Web Shell:     %s\n", cfg.Server.Addr())
		fmt.Printf("    Session TTL:   %s\n", cfg.Server.SessionTTL)
		fmt.Printf("    Chart Size:    %dx%d\n", cfg.Chart.Width, cfg.Chart.Height)
		fmt.Printf("    Logging:       %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		fmt.Println()

		fmt.Println("  Pricing API:")
		for _, s := range config.CheckSettings(cfg) {
			fmt.Printf("    %-25s %s (%s)\n", s.Name+":", s.Value, s.Source)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
