// =============================================================================
// Merchant Fee Intake - Shared Types
// =============================================================================
//
// This package contains the types shared by the parsing, validation, intake,
// export and API layers. Keeping them here avoids import cycles between the
// validators and the orchestrator that drives them.
//
// DATA FLOW:
//   [][]string (adapter output)
//     -> TransactionRecord (one per data row, keyed by lower-case column)
//     -> ValidationError    (zero or more per row, row 0 = file level)
//     -> ValidationResult   (accepted records + every error found)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// RECORDS
// =============================================================================

// TransactionRecord is one data row keyed by normalised column name.
// Every header column of the source is present; cells missing from a short
// row hold the empty string.
type TransactionRecord map[string]string

// RequiredColumnSet is the ordered list of columns a batch must carry.
// Order matters: it drives the column list in a missing-columns error.
type RequiredColumnSet []string

// Normalize returns the set lower-cased and trimmed, preserving order.
func (c RequiredColumnSet) Normalize() RequiredColumnSet {
	out := make(RequiredColumnSet, 0, len(c))
	for _, col := range c {
		out = append(out, NormalizeHeader(col))
	}
	return out
}

// Contains reports whether the (normalised) column is part of the set.
func (c RequiredColumnSet) Contains(col string) bool {
	col = NormalizeHeader(col)
	for _, existing := range c {
		if NormalizeHeader(existing) == col {
			return true
		}
	}
	return false
}

// NormalizeHeader is the single header normalisation rule used everywhere.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// Well-known column names.
const (
	ColumnTransactionID   = "transaction_id"
	ColumnTransactionDate = "transaction_date"
	ColumnMerchantID      = "merchant_id"
	ColumnAmount          = "amount"
	ColumnTransactionType = "transaction_type"
	ColumnCardType        = "card_type"
	ColumnCardBrand       = "card_brand"
)

// StandardColumns is the six-column schema.
var StandardColumns = RequiredColumnSet{
	ColumnTransactionID,
	ColumnTransactionDate,
	ColumnMerchantID,
	ColumnAmount,
	ColumnTransactionType,
	ColumnCardType,
}

// ExtendedColumns adds card_brand to the standard schema.
var ExtendedColumns = RequiredColumnSet{
	ColumnTransactionID,
	ColumnTransactionDate,
	ColumnMerchantID,
	ColumnAmount,
	ColumnTransactionType,
	ColumnCardType,
	ColumnCardBrand,
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorType tags a ValidationError with its category.
type ErrorType string

// Row-level categories.
const (
	ErrMissingValue  ErrorType = "MISSING_VALUE"
	ErrInvalidFormat ErrorType = "INVALID_FORMAT"
	ErrInvalidDate   ErrorType = "INVALID_DATE"
	ErrInvalidType   ErrorType = "INVALID_TYPE"
	ErrDuplicate     ErrorType = "DUPLICATE"
)

// File-level categories (always reported on row 0).
const (
	ErrEmptyFile         ErrorType = "EMPTY_FILE"
	ErrMissingColumns    ErrorType = "MISSING_COLUMNS"
	ErrUnsupportedFormat ErrorType = "UNSUPPORTED_FORMAT"
	ErrReadFailure       ErrorType = "READ_ERROR"
)

// FileColumn is the column name used for errors that concern the whole file.
const FileColumn = "file"

// ValidationError is a single issue found in a batch.
//
// Row is 1-based among data rows (blank lines excluded). Row 0 is reserved
// for file and structure errors. Column is the offending column name, a
// comma-joined list of missing columns, or "file".
type ValidationError struct {
	Row       int       `json:"row"`
	Column    string    `json:"column"`
	Error     string    `json:"error"`
	ErrorType ErrorType `json:"errorType,omitempty"`
}

// String renders the error as one report line.
func (e ValidationError) String() string {
	if e.IsFileLevel() {
		return fmt.Sprintf("File [%s]: %s", e.Column, e.Error)
	}
	return fmt.Sprintf("Row %d [%s]: %s", e.Row, e.Column, e.Error)
}

// IsFileLevel reports whether the error concerns the whole file.
func (e ValidationError) IsFileLevel() bool {
	return e.Row == 0
}

// =============================================================================
// RESULT
// =============================================================================

// ValidationResult is the outcome of validating one batch.
//
// INVARIANTS:
//   - Valid == (len(Errors) == 0)
//   - Data holds the error-free rows in source order
//   - Data and Errors are never nil, so they encode as [] rather than null
type ValidationResult struct {
	Valid  bool                `json:"valid"`
	Data   []TransactionRecord `json:"data"`
	Errors []ValidationError   `json:"errors"`
}

// NewResult assembles a result and derives Valid from the error list.
func NewResult(data []TransactionRecord, errs []ValidationError) ValidationResult {
	if data == nil {
		data = []TransactionRecord{}
	}
	if errs == nil {
		errs = []ValidationError{}
	}
	return ValidationResult{
		Valid:  len(errs) == 0,
		Data:   data,
		Errors: errs,
	}
}

// ErrorCount returns the number of errors in the result.
func (r ValidationResult) ErrorCount() int {
	return len(r.Errors)
}

// ErroredRows returns the distinct data rows that carry at least one error,
// in the order they were first reported. File-level errors are not counted.
func (r ValidationResult) ErroredRows() []int {
	seen := make(map[int]bool)
	var rows []int
	for _, e := range r.Errors {
		if e.Row == 0 || seen[e.Row] {
			continue
		}
		seen[e.Row] = true
		rows = append(rows, e.Row)
	}
	return rows
}

// TotalRows is the number of data rows that reached row validation.
func (r ValidationResult) TotalRows() int {
	return len(r.Data) + len(r.ErroredRows())
}

// Summary is the one-line status message shown to users.
func (r ValidationResult) Summary() string {
	if r.Valid {
		return fmt.Sprintf("Validation passed: %d record(s) ready for submission", len(r.Data))
	}
	return fmt.Sprintf("Validation failed: %d issue(s) found. Please fix the errors and upload again.", len(r.Errors))
}
