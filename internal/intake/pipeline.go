// =============================================================================
// Merchant Fee Intake - Intake Pipeline
// =============================================================================
//
// This module is the single entry point for validating a batch of merchant
// transactions, whether it arrives as an uploaded file or as rows entered by
// hand.
//
// FILE PIPELINE:
//   1. Detect the format from the file name or MIME type
//   2. Adapt the bytes to rows (CSV or XLSX adapter)
//   3. Check the header against the required columns (fail fast)
//   4. Map every data row to a record by column name
//   5. Validate each record, tracking transaction IDs across the batch
//   6. Assemble the result: accepted records plus every error found
//
// MANUAL PIPELINE:
//   Steps 4-6 only; manual rows are already keyed by column name.
//
// STATE:
//   A Pipeline holds configuration only. Every call builds its own duplicate
//   tracker and error list, so one Pipeline can serve concurrent callers and
//   validating the same input twice gives the same result.
//
// =============================================================================

package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
	"github.com/ginjaninja78/merchant-fee-intake/internal/csvparser"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
	"github.com/ginjaninja78/merchant-fee-intake/internal/validation"
	"github.com/ginjaninja78/merchant-fee-intake/internal/xlsxparser"
)

// DefaultPreviewRows is the preview size used when none is configured.
const DefaultPreviewRows = 10

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline validates transaction batches.
type Pipeline struct {
	adapters    map[Format]Adapter
	now         func() time.Time
	previewRows int
	logger      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the reference clock for the future-date rule.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCSVSettings configures the delimited-text adapter.
func WithCSVSettings(settings config.CSVSettings) Option {
	return func(p *Pipeline) {
		p.adapters[FormatCSV] = csvparser.New(settings)
	}
}

// WithAdapter replaces the adapter used for a format.
func WithAdapter(format Format, adapter Adapter) Option {
	return func(p *Pipeline) {
		p.adapters[format] = adapter
	}
}

// WithPreviewRows sets the number of records returned by Preview.
func WithPreviewRows(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.previewRows = n
		}
	}
}

// New creates a pipeline with the CSV and XLSX adapters installed.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		adapters: map[Format]Adapter{
			FormatCSV:  csvparser.New(config.CSVSettings{}),
			FormatXLSX: xlsxparser.New(),
		},
		now:         time.Now,
		previewRows: DefaultPreviewRows,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig creates a pipeline from the application configuration.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Pipeline {
	return New(
		WithCSVSettings(cfg.CSV),
		WithPreviewRows(cfg.PreviewRows),
		WithLogger(logger),
	)
}

// =============================================================================
// FILE PATH
// =============================================================================

// ValidateFile validates an uploaded file.
//
// PARAMETERS:
//   - name: the original file name, used for format detection.
//   - contentType: the MIME type, consulted when the extension is unknown.
//   - r: the file content.
//   - cols: the required columns.
//
// RETURNS:
//   - The validation result. Structure and row errors are reported inside
//     the result, never as a Go error.
//   - *UnsupportedFormatError when no adapter handles the file (nothing is
//     read), or *ReadError when the content cannot be read or decoded.
func (p *Pipeline) ValidateFile(name, contentType string, r io.Reader, cols types.RequiredColumnSet) (types.ValidationResult, error) {
	format, err := DetectFormat(name, contentType)
	if err != nil {
		p.logger.Warn("Rejected upload with unsupported format",
			zap.String("file", name),
			zap.String("content_type", contentType),
		)
		return types.ValidationResult{}, err
	}

	adapter, ok := p.adapters[format]
	if !ok {
		return types.ValidationResult{}, &UnsupportedFormatError{Name: name, ContentType: contentType}
	}

	rows, err := adapter.Parse(r)
	if err != nil {
		p.logger.Warn("Failed to read upload",
			zap.String("file", name),
			zap.String("format", string(format)),
			zap.Error(err),
		)
		return types.ValidationResult{}, &ReadError{Name: name, Err: err}
	}

	result := p.ValidateRows(rows, cols)
	p.logger.Info("Validated upload",
		zap.String("file", name),
		zap.String("format", string(format)),
		zap.Int("accepted", len(result.Data)),
		zap.Int("errors", len(result.Errors)),
		zap.Bool("valid", result.Valid),
	)
	return result, nil
}

// ValidateRows validates adapter output: a header row followed by data rows.
// A structural problem rejects the batch with a single row-0 error and no
// row is examined.
func (p *Pipeline) ValidateRows(rows [][]string, cols types.RequiredColumnSet) types.ValidationResult {
	header, verr := validation.ValidateStructure(rows, cols)
	if verr != nil {
		return types.NewResult(nil, []types.ValidationError{*verr})
	}

	rv := validation.NewRowValidator(cols, p.now())
	data := []types.TransactionRecord{}
	errs := []types.ValidationError{}

	rowNumber := 0
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		rowNumber++

		rec := recordFromRow(header, row)
		if rowErrs := rv.ValidateRow(rowNumber, rec); len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		data = append(data, rec)
	}

	return types.NewResult(data, errs)
}

// recordFromRow maps cells to header names. Cells beyond the header are
// dropped; missing cells become "". When a header name repeats, the last
// column with that name wins.
func recordFromRow(header, row []string) types.TransactionRecord {
	rec := make(types.TransactionRecord, len(header))
	for i, col := range header {
		if col == "" {
			continue
		}
		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		rec[col] = value
	}
	return rec
}

// =============================================================================
// MANUAL PATH
// =============================================================================

// ValidateRecords validates manually entered rows. There is no header to
// check; every required column is looked up in each row by name, and native
// values (numbers, booleans) are converted to text first. Numeric zero is a
// present value and is left for the amount rule to judge.
func (p *Pipeline) ValidateRecords(records []map[string]any, cols types.RequiredColumnSet) types.ValidationResult {
	rv := validation.NewRowValidator(cols, p.now())
	data := []types.TransactionRecord{}
	errs := []types.ValidationError{}

	for i, raw := range records {
		rec := make(types.TransactionRecord, len(raw)+len(cols))
		for _, col := range cols.Normalize() {
			rec[col] = ""
		}
		for key, value := range raw {
			name := types.NormalizeHeader(key)
			if name == "" {
				continue
			}
			rec[name] = stringify(value)
		}

		if rowErrs := rv.ValidateRow(i+1, rec); len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		data = append(data, rec)
	}

	result := types.NewResult(data, errs)
	p.logger.Debug("Validated manual entries",
		zap.Int("rows", len(records)),
		zap.Int("accepted", len(result.Data)),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

// stringify renders a manually entered value as cell text.
func stringify(value any) string {
	if !validation.RequiredField(value) {
		return ""
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

// =============================================================================
// RESULT HELPERS
// =============================================================================

// Preview returns at most the configured number of accepted records. The
// result itself is never truncated.
func (p *Pipeline) Preview(data []types.TransactionRecord) []types.TransactionRecord {
	return Preview(data, p.previewRows)
}

// Preview returns the first n records of data.
func Preview(data []types.TransactionRecord, n int) []types.TransactionRecord {
	if n < 0 {
		n = 0
	}
	if len(data) < n {
		n = len(data)
	}
	return data[:n:n]
}

// FileError converts a ValidateFile error into a single row-0 result so
// callers that render everything as a report can treat every outcome alike.
func FileError(err error) types.ValidationResult {
	verr := types.ValidationError{
		Row:       0,
		Column:    types.FileColumn,
		Error:     err.Error(),
		ErrorType: types.ErrReadFailure,
	}
	var unsupported *UnsupportedFormatError
	if errors.As(err, &unsupported) {
		verr.ErrorType = types.ErrUnsupportedFormat
	}
	return types.NewResult(nil, []types.ValidationError{verr})
}
