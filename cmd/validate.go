// =============================================================================
// Merchant Fee Intake - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   intake validate [files or directories...] [flags]
//
// FLAGS:
//   --schema   : required-column schema (default from config)
//   --out      : directory for exports and reports (default from config)
//   --format   : export format for accepted files: xml, csv or json
//   --no-export: validate only, write no export files
//   --report   : write an error log, a CSV error report and a run summary
//   --json     : print results as JSON instead of text
//
// PROCESSING PIPELINE:
//   1. Expand the arguments into upload files (directories are walked)
//   2. Validate the files concurrently, at most max_concurrency at a time
//   3. Export the accepted records of every accepted file
//   4. Print every (row, column, message) of every rejected file
//   5. Optionally write the error log and summary
//
// The command fails when any file is rejected, so it can gate a pipeline.
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
	"github.com/ginjaninja78/merchant-fee-intake/internal/export"
	"github.com/ginjaninja78/merchant-fee-intake/internal/intake"
	"github.com/ginjaninja78/merchant-fee-intake/internal/report"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
	"github.com/ginjaninja78/merchant-fee-intake/internal/validation"
	"github.com/ginjaninja78/merchant-fee-intake/pkg/logger"
)

// validateOptions are the flags of the validate command.
type validateOptions struct {
	Schema    string
	OutputDir string
	Format    string
	NoExport  bool
	Report    bool
	JSON      bool
}

var validateFlags validateOptions

var validateCmd = &cobra.Command{
	Use:   "validate [files or directories...]",
	Short: "Validate transaction files and export accepted batches",
	Long: `The validate command checks CSV and Excel transaction files against the
required-column schema. Every file is validated independently; a rejected
file never affects the others.

For accepted files the records are exported to the output directory.
For rejected files every problem is listed by row and column.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(appConfig, validateFlags, args, cmd.OutOrStdout(), logger.Get())
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.Schema, "schema", "",
		"Required-column schema (default from config)")
	validateCmd.Flags().StringVar(&validateFlags.OutputDir, "out", "",
		"Directory for exports and reports (default from config)")
	validateCmd.Flags().StringVar(&validateFlags.Format, "format", string(export.FormatXML),
		"Export format for accepted files: xml, csv or json")
	validateCmd.Flags().BoolVar(&validateFlags.NoExport, "no-export", false,
		"Validate only; do not write export files")
	validateCmd.Flags().BoolVar(&validateFlags.Report, "report", false,
		"Write an error log, CSV error report and run summary")
	validateCmd.Flags().BoolVar(&validateFlags.JSON, "json", false,
		"Print results as JSON")
}

// fileReport is the outcome of one file as printed by --json.
type fileReport struct {
	File       string                 `json:"file"`
	OutputFile string                 `json:"outputFile,omitempty"`
	Result     types.ValidationResult `json:"result"`
	Error      string                 `json:"error,omitempty"`
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runValidate(cfg *config.Config, opts validateOptions, args []string, out io.Writer, log *zap.Logger) error {
	start := time.Now()

	cols, err := cfg.Schema(opts.Schema)
	if err != nil {
		return err
	}
	schemaName := strings.ToLower(strings.TrimSpace(opts.Schema))
	if schemaName == "" {
		schemaName = cfg.DefaultSchema
	}

	format, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	files, err := intake.DiscoverFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No CSV or Excel files found.")
		return nil
	}
	log.Info("Validating files", zap.Int("files", len(files)), zap.String("schema", schemaName))

	pipeline := intake.NewFromConfig(cfg, log)
	outcomes := validateAll(pipeline, files, cols, cfg.MaxConcurrency)

	reports := make([]fileReport, len(outcomes))
	summary := report.ProcessingSummary{StartTime: start, Schema: schemaName}
	var entries []report.ErrorLogEntry

	for i, o := range outcomes {
		reports[i] = fileReport{File: o.FilePath, Result: o.Result}
		fs := report.FileSummary{
			InputFile: o.FilePath,
			Records:   len(o.Result.Data),
			Errors:    o.Result.ErrorCount(),
			Duration:  o.Duration,
		}
		if o.Err != nil {
			reports[i].Error = o.Err.Error()
			fs.Failure = o.Err.Error()
		}

		if o.Accepted() && !opts.NoExport {
			path, err := exportAccepted(o, cols, schemaName, format, outputDir)
			if err != nil {
				return err
			}
			reports[i].OutputFile = path
			fs.OutputFile = path
		}

		entries = append(entries, report.EntriesFromResult(o.FilePath, o.Result)...)
		summary.Files = append(summary.Files, fs)
	}
	summary.EndTime = time.Now()

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		printReports(out, reports)
	}

	if opts.Report {
		if err := writeReports(out, entries, summary, outputDir, !opts.JSON); err != nil {
			return err
		}
	}

	accepted, rejected, _, _ := summary.Counts()
	log.Info("Validation run finished",
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
		zap.Duration("duration", summary.EndTime.Sub(start)),
	)
	if rejected > 0 {
		return fmt.Errorf("%d of %d file(s) rejected", rejected, len(files))
	}
	return nil
}

// validateAll validates files concurrently and returns the outcomes in the
// order of files.
func validateAll(p *intake.Pipeline, files []string, cols types.RequiredColumnSet, limit int) []intake.FileOutcome {
	if limit < 1 {
		limit = 1
	}
	outcomes := make([]intake.FileOutcome, len(files))
	sem := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = p.ValidatePath(path, cols)
		}(i, file)
	}
	wg.Wait()

	return outcomes
}

func exportAccepted(o intake.FileOutcome, cols types.RequiredColumnSet, schema string, format export.Format, outputDir string) (string, error) {
	if err := report.EnsureDir(outputDir); err != nil {
		return "", err
	}
	name := report.GenerateOutputFileName("{original}_accepted_{timestamp}", map[string]string{
		"original": report.BaseName(o.FilePath),
	}, format.Extension())
	path := filepath.Join(outputDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	opts := export.DefaultOptions()
	opts.Schema = schema
	opts.BatchID = report.BaseName(name)
	if err := export.Write(f, format, o.Result.Data, cols, opts); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to export %s: %w", o.FilePath, err)
	}
	return path, f.Close()
}

func printReports(out io.Writer, reports []fileReport) {
	for _, r := range reports {
		status := "ACCEPTED"
		if !r.Result.Valid {
			status = "REJECTED"
		}
		fmt.Fprintf(out, "[%s] %s\n", status, r.File)
		fmt.Fprintf(out, "  %s\n", r.Result.Summary())
		if !r.Result.Valid {
			fmt.Fprint(out, validation.FormatErrors(r.Result.Errors))
		}
		if r.OutputFile != "" {
			fmt.Fprintf(out, "  Exported to %s\n", r.OutputFile)
		}
	}
}

func writeReports(out io.Writer, entries []report.ErrorLogEntry, summary report.ProcessingSummary, outputDir string, announce bool) error {
	logPath, err := report.WriteErrorLog(entries, outputDir)
	if err != nil {
		return err
	}
	csvPath, err := report.WriteErrorCSV(entries, outputDir)
	if err != nil {
		return err
	}
	summaryPath, err := report.WriteSummaryLog(summary, outputDir)
	if err != nil {
		return err
	}
	if announce {
		for _, p := range []string{logPath, csvPath, summaryPath} {
			if p != "" {
				fmt.Fprintf(out, "Wrote %s\n", p)
			}
		}
	}
	return nil
}
