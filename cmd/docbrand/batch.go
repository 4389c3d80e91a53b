package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cybergen/docbrand/internal/batch"
	"github.com/cybergen/docbrand/internal/compose"
	"github.com/cybergen/docbrand/internal/convert"
	"github.com/cybergen/docbrand/internal/observability"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Brand every document in a directory",
	Long: `Processes all supported documents in the input directory against one template, in parallel across a worker pool.

Each file is an independent unit of work: a failure is recorded in the batch report and never aborts sibling documents. The report is written as report.json in the output directory.`,
	RunE: runBatchCmd,
}

var (
	batchConfigPath string
	batchInputDir   string
	batchOutputDir  string
	batchTemplate   string
	batchWorkers    int
	batchConvertCmd string
	batchVerbose    bool
)

func init() {
	batchCommand.Flags().StringVar(&batchConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	batchCommand.Flags().StringVarP(&batchInputDir, "input-dir", "i", "", "Directory of documents to brand")
	batchCommand.Flags().StringVarP(&batchOutputDir, "output-dir", "o", "", "Directory for branded outputs")
	batchCommand.Flags().StringVarP(&batchTemplate, "template", "t", "", "Path to the branded template package (defaults to DOCBRAND_TEMPLATE env var)")
	batchCommand.Flags().IntVar(&batchWorkers, "workers", 0, "Worker pool size (0 = number of CPUs)")
	batchCommand.Flags().StringVar(&batchConvertCmd, "convert-command", "", "External PDF converter command line with {input} and {output} placeholders")
	batchCommand.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Print detailed per-file information")

	rootCmd.AddCommand(batchCommand)
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := mergedConfig(batchConfigPath, batchVerbose)
	if err != nil {
		return err
	}
	if batchInputDir != "" {
		cfg.InputDir = batchInputDir
	}
	if batchOutputDir != "" {
		cfg.OutputDir = batchOutputDir
	}
	if batchTemplate != "" {
		cfg.Template = batchTemplate
	}
	if batchWorkers > 0 {
		cfg.Workers = batchWorkers
	}
	if batchConvertCmd != "" {
		cfg.ConvertCommand = batchConvertCmd
	}

	if cfg.InputDir == "" {
		return fmt.Errorf("--input-dir is required")
	}
	if cfg.Template == "" {
		return fmt.Errorf("--template is required (or set DOCBRAND_TEMPLATE)")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}

	var converter convert.Converter
	if cfg.ConvertCommand != "" {
		converter, err = convert.NewCommandConverter(cfg.ConvertCommand)
		if err != nil {
			return err
		}
	}

	printer := observability.NewPrinter(os.Stdout)
	runner := &batch.Runner{
		Composer:  compose.New(),
		Converter: converter,
		Workers:   cfg.Workers,
	}
	if cfg.Verbose {
		runner.OnResult = printer.PrintFileResult
	}

	report, err := runner.Run(ctx, cfg.InputDir, cfg.Template, cfg.OutputDir)
	if err != nil {
		return err
	}

	reportPath := filepath.Join(cfg.OutputDir, "report.json")
	if err := report.Write(reportPath); err != nil {
		return err
	}

	printer.PrintReport(report)
	fmt.Fprintf(os.Stdout, "Report written to %s\n", reportPath)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", report.Failed, report.Processed)
	}
	return nil
}
