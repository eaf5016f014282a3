package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"standardizer/internal/config"
	"standardizer/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "standardizer",
	Short: "Map plot data files onto the standardized plot layout",
	Long: `standardizer reads a plot file (CSV, XLSX, GeoJSON or KML), lets you map its
columns onto the fixed plot identifier, certification and geometry fields, and
previews the result in the standardized record layout.

Run "standardizer serve" for the web form.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "standardizer.yaml", "Path to the YAML config file")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")

	inspectCmd.Flags().IntVar(&inspectSkipRows, "skip-rows", 0, "Leading rows to skip before the header (CSV only)")
	inspectCmd.Flags().IntVar(&inspectLimit, "limit", 20, "Rows to preview (0 = all)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(schemaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
