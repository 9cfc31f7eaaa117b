// =============================================================================
// Merchant Fee Intake - Reports
// =============================================================================
//
// Writes what a validation run leaves behind for people to read:
//   - error logs listing every (row, column, message) of rejected files
//   - CSV error reports for spreadsheet users
//   - a processing summary for a multi-file run
//   - unique output file names for exported batches
//
// Every writer has a Render form that targets an io.Writer and a Write form
// that creates a timestamped file in an output directory.
//
// =============================================================================

package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

const (
	rule      = "================================================================================\n"
	thinRule  = "--------------------------------------------------------------------------------\n"
	stampFmt  = "20060102_150405"
	humanTime = "2006-01-02 15:04:05"
)

// EnsureDir creates dir and its parents when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a name template.
//
// PARAMETERS:
//   - format: the template. Placeholders:
//       {uuid}      a random UUID
//       {timestamp} YYYYMMDD_HHMMSS
//       {date}      YYYYMMDD
//       {time}      HHMMSS
//       any key of params, e.g. {original} or {schema}
//   - params: extra placeholder values.
//   - ext: extension to enforce, including the dot.
//
// EXAMPLE:
//   GenerateOutputFileName("{original}_accepted_{timestamp}", {"original": "march"}, ".xml")
//   -> "march_accepted_20260115_143022.xml"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	pairs := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format(stampFmt),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", value)
	}
	result := strings.NewReplacer(pairs...).Replace(format)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// BaseName returns the file name of path without directory or extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// =============================================================================
// ERROR LOG
// =============================================================================

// ErrorLogEntry is one validation error tied to its source file.
type ErrorLogEntry struct {
	FileName  string
	Row       int
	Column    string
	ErrorType types.ErrorType
	Message   string
}

// EntriesFromResult turns the errors of result into log entries.
func EntriesFromResult(fileName string, result types.ValidationResult) []ErrorLogEntry {
	entries := make([]ErrorLogEntry, 0, len(result.Errors))
	for _, e := range result.Errors {
		entries = append(entries, ErrorLogEntry{
			FileName:  fileName,
			Row:       e.Row,
			Column:    e.Column,
			ErrorType: e.ErrorType,
			Message:   e.Error,
		})
	}
	return entries
}

// RenderErrorLog writes a human-readable error log.
func RenderErrorLog(w io.Writer, entries []ErrorLogEntry, generated time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Merchant Fee Intake - Error Log\nGenerated: %s\nTotal Errors: %d\n%s\n",
		generated.Format(humanTime), len(entries), rule)

	for i, e := range entries {
		fmt.Fprintf(bw, "Error #%d\n", i+1)
		fmt.Fprintf(bw, "  File:       %s\n", e.FileName)
		if e.Row > 0 {
			fmt.Fprintf(bw, "  Row:        %d\n", e.Row)
		} else {
			bw.WriteString("  Row:        (file)\n")
		}
		fmt.Fprintf(bw, "  Column:     %s\n", e.Column)
		if e.ErrorType != "" {
			fmt.Fprintf(bw, "  Error Type: %s\n", e.ErrorType)
		}
		fmt.Fprintf(bw, "  Message:    %s\n\n", e.Message)
	}

	bw.WriteString(rule + "End of Error Log\n")
	return bw.Flush()
}

// WriteErrorLog writes entries to error_log_<timestamp>.txt in outputDir.
// Nothing is written for an empty list and the returned path is "".
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	now := time.Now()
	path := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", now.Format(stampFmt)))
	err := writeFile(path, func(w io.Writer) error {
		return RenderErrorLog(w, entries, now)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// RenderErrorCSV writes one CSV line per entry under a header.
func RenderErrorCSV(w io.Writer, entries []ErrorLogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "row", "column", "error_type", "error"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.FileName, strconv.Itoa(e.Row), e.Column, string(e.ErrorType), e.Message}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteErrorCSV writes entries to error_report_<timestamp>.csv in outputDir.
func WriteErrorCSV(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	path := filepath.Join(outputDir, fmt.Sprintf("error_report_%s.csv", time.Now().Format(stampFmt)))
	err := writeFile(path, func(w io.Writer) error {
		return RenderErrorCSV(w, entries)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// FileSummary is the outcome of one input file.
type FileSummary struct {
	InputFile  string
	OutputFile string
	Records    int
	Errors     int
	Duration   time.Duration
	Failure    string
}

// Accepted reports whether the file passed validation.
func (f FileSummary) Accepted() bool {
	return f.Failure == "" && f.Errors == 0
}

// ProcessingSummary describes a multi-file run.
type ProcessingSummary struct {
	StartTime time.Time
	EndTime   time.Time
	Schema    string
	Files     []FileSummary
}

// Counts returns accepted and rejected file counts plus record and error
// totals.
func (s ProcessingSummary) Counts() (accepted, rejected, records, errors int) {
	for _, f := range s.Files {
		if f.Accepted() {
			accepted++
		} else {
			rejected++
		}
		records += f.Records
		errors += f.Errors
	}
	return accepted, rejected, records, errors
}

// RenderSummary writes the run summary.
func RenderSummary(w io.Writer, s ProcessingSummary) error {
	accepted, rejected, records, errs := s.Counts()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Merchant Fee Intake - Processing Summary\n%s\n", rule)
	fmt.Fprintf(bw, "Run Information:\n  Start Time: %s\n  End Time:   %s\n  Duration:   %s\n  Schema:     %s\n\n",
		s.StartTime.Format(humanTime), s.EndTime.Format(humanTime), s.EndTime.Sub(s.StartTime), s.Schema)
	fmt.Fprintf(bw, "Statistics:\n  Total Files:       %d\n  Accepted:          %d\n  Rejected:          %d\n  Accepted Records:  %d\n  Validation Errors: %d\n\n",
		len(s.Files), accepted, rejected, records, errs)

	writeFiles := func(title string, accepted bool) {
		var picked []FileSummary
		for _, f := range s.Files {
			if f.Accepted() == accepted {
				picked = append(picked, f)
			}
		}
		if len(picked) == 0 {
			return
		}
		bw.WriteString(title + ":\n" + thinRule)
		for _, f := range picked {
			fmt.Fprintf(bw, "  Input:    %s\n", f.InputFile)
			if f.OutputFile != "" {
				fmt.Fprintf(bw, "  Output:   %s\n", f.OutputFile)
			}
			if f.Failure != "" {
				fmt.Fprintf(bw, "  Error:    %s\n", f.Failure)
			} else {
				fmt.Fprintf(bw, "  Records:  %d\n  Errors:   %d\n", f.Records, f.Errors)
			}
			fmt.Fprintf(bw, "  Duration: %s\n\n", f.Duration)
		}
	}
	writeFiles("Accepted Files", true)
	writeFiles("Rejected Files", false)

	bw.WriteString(rule + "End of Summary\n")
	return bw.Flush()
}

// WriteSummaryLog writes processing_summary_<timestamp>.txt in outputDir.
func WriteSummaryLog(s ProcessingSummary, outputDir string) (string, error) {
	path := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt", time.Now().Format(stampFmt)))
	err := writeFile(path, func(w io.Writer) error {
		return RenderSummary(w, s)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
