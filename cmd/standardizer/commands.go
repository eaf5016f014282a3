package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"standardizer/internal/server"
	"standardizer/pkg/parser"
	"standardizer/pkg/report"
	"standardizer/pkg/schema"
)

var (
	serveAddr       string
	inspectSkipRows int
	inspectLimit    int
)

// serveCmd runs the web form
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload and mapping page",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// inspectCmd parses one file and prints what the form would offer
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Parse a file and print its preview and mapping options",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

// schemaCmd prints the standardized layout
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the standardized record columns",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("starting standardizer",
		zap.String("addr", cfg.Server.Addr),
		zap.Bool("materialize", cfg.Preview.Materialize),
		zap.Bool("auto_suggest", cfg.Mapping.AutoSuggest),
	)
	return srv.ListenAndServe(ctx)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := parser.DefaultRegistry().Parse(path, f, parser.Options{SkipRows: inspectSkipRows})
	if err != nil {
		return err
	}
	logger.Debug("parsed file",
		zap.String("file", path),
		zap.String("format", ds.Format),
		zap.Int("records", ds.Len()),
	)

	fmt.Fprint(cmd.OutOrStdout(), report.RenderInspect(ds, inspectLimit, report.DefaultStyles()))
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	t := report.Table{Columns: []string{"#", "column"}}
	for i, c := range schema.Columns {
		t.Rows = append(t.Rows, []string{fmt.Sprint(i + 1), c})
	}
	t.Total = len(t.Rows)
	fmt.Fprint(cmd.OutOrStdout(), report.RenderTable("Standardized Columns", t, report.DefaultStyles()))
	return nil
}
