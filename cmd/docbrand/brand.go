package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cybergen/docbrand/internal/compose"
	"github.com/cybergen/docbrand/internal/config"
	"github.com/cybergen/docbrand/internal/convert"
)

var brandCommand = &cobra.Command{
	Use:   "brand",
	Short: "Brand one document with the template",
	Long: `Composes a single branded document: the template's headers, footers, styles, theme, and media are merged into the input document.

Strategies are layered: the content is rebuilt inside a copy of the template shell; if that fails, template parts are merged into the input shell; if that also fails, the original file is copied through unmodified under a _fallback name.`,
	RunE: runBrandCmd,
}

var (
	brandConfigPath string
	brandInput      string
	brandTemplate   string
	brandOutput     string
	brandConvertCmd string
	brandVerbose    bool
)

func init() {
	brandCommand.Flags().StringVar(&brandConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	brandCommand.Flags().StringVarP(&brandInput, "input", "i", "", "Path to the document to brand (.docx, or .pdf with --convert-command)")
	brandCommand.Flags().StringVarP(&brandTemplate, "template", "t", "", "Path to the branded template package (defaults to DOCBRAND_TEMPLATE env var)")
	brandCommand.Flags().StringVarP(&brandOutput, "output", "o", "", "Output path (defaults to the input name next to the input)")
	brandCommand.Flags().StringVar(&brandConvertCmd, "convert-command", "", "External PDF converter command line with {input} and {output} placeholders")
	brandCommand.Flags().BoolVarP(&brandVerbose, "verbose", "v", false, "Print detailed composition information")

	rootCmd.AddCommand(brandCommand)
}

func runBrandCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := mergedConfig(brandConfigPath, brandVerbose)
	if err != nil {
		return err
	}
	if brandTemplate != "" {
		cfg.Template = brandTemplate
	}
	if brandConvertCmd != "" {
		cfg.ConvertCommand = brandConvertCmd
	}

	if brandInput == "" {
		return fmt.Errorf("--input is required")
	}
	if cfg.Template == "" {
		return fmt.Errorf("--template is required (or set DOCBRAND_TEMPLATE)")
	}

	inputPath := brandInput
	if strings.EqualFold(filepath.Ext(inputPath), ".pdf") {
		converted, cleanup, err := convertInput(ctx, cfg, inputPath)
		if err != nil {
			return err
		}
		defer cleanup()
		inputPath = converted
	}

	outputPath := brandOutput
	if outputPath == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outputPath = filepath.Join(filepath.Dir(brandInput), base+"_branded.docx")
	}

	result, err := compose.New().Compose(ctx, inputPath, cfg.Template, outputPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "%s: %s (%s strategy)\n", brandInput, result.OutputPath, result.Strategy)
	if cfg.Verbose {
		for _, note := range result.Notes {
			fmt.Fprintf(os.Stdout, "  - %s\n", note)
		}
	}
	return nil
}

// convertInput runs the configured external converter on a PDF input and
// returns the converted document path plus a cleanup for its working
// directory.
func convertInput(ctx context.Context, cfg *config.Config, inputPath string) (string, func(), error) {
	if cfg.ConvertCommand == "" {
		return "", nil, fmt.Errorf("input is a PDF but no converter is configured (--convert-command or DOCBRAND_CONVERT_COMMAND)")
	}
	converter, err := convert.NewCommandConverter(cfg.ConvertCommand)
	if err != nil {
		return "", nil, err
	}

	workDir, err := os.MkdirTemp("", "docbrand-convert-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(workDir) }

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	converted := filepath.Join(workDir, base+".docx")
	if err := converter.Convert(ctx, inputPath, converted); err != nil {
		cleanup()
		return "", nil, err
	}
	return converted, cleanup, nil
}

// mergedConfig loads the optional config file, applies environment defaults,
// and validates the result.
func mergedConfig(configPath string, verbose bool) (*config.Config, error) {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if verbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", configPath)
		}
	}
	cfg.FromEnv()
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
