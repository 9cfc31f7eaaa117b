// =============================================================================
// Merchant Fee Intake - Row Validator
// =============================================================================
//
// The row validator applies the full rule set to one record at a time and
// tracks transaction IDs across a batch so duplicates are found in a single
// linear pass.
//
// RULES (evaluated independently, a row may collect several errors):
//   1. Every required column must be non-empty            -> MISSING_VALUE
//   2. A non-empty transaction_id must not repeat          -> DUPLICATE
//   3. A non-empty transaction_date must parse, not future -> INVALID_DATE
//   4. A non-empty amount must be a number greater than 0  -> INVALID_TYPE
//
// A RowValidator belongs to exactly one validation pass. Create a new one for
// every batch; reusing one would carry seen IDs into the next batch.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// =============================================================================
// MESSAGES
// =============================================================================

const (
	MsgRequired  = "Required field cannot be empty"
	MsgDuplicate = "Duplicate transaction ID - must be unique"
	MsgDate      = "Invalid date format or future date (use DD/MM/YYYY, YYYY-MM-DD, DD-MM-YYYY or DDMMYYYY; date cannot be in the future)"
	MsgAmount    = "Amount must be a positive number"
)

// =============================================================================
// VALIDATOR
// =============================================================================

// RowValidator validates records of one batch.
type RowValidator struct {
	cols types.RequiredColumnSet
	now  time.Time
	seen map[string]int
}

// NewRowValidator creates a validator for one batch. now is the reference
// time for the future-date rule.
func NewRowValidator(cols types.RequiredColumnSet, now time.Time) *RowValidator {
	return &RowValidator{
		cols: cols.Normalize(),
		now:  now,
		seen: make(map[string]int),
	}
}

// ValidateRow validates one record. row is the 1-based data row number used
// in the returned errors. The record is not modified.
func (v *RowValidator) ValidateRow(row int, rec types.TransactionRecord) []types.ValidationError {
	var errs []types.ValidationError

	for _, col := range v.cols {
		if !RequiredString(rec[col]) {
			errs = append(errs, types.ValidationError{
				Row:       row,
				Column:    col,
				Error:     MsgRequired,
				ErrorType: types.ErrMissingValue,
			})
		}
	}

	if id := strings.TrimSpace(rec[types.ColumnTransactionID]); id != "" {
		if _, dup := v.seen[id]; dup {
			errs = append(errs, types.ValidationError{
				Row:       row,
				Column:    types.ColumnTransactionID,
				Error:     MsgDuplicate,
				ErrorType: types.ErrDuplicate,
			})
		} else {
			v.seen[id] = row
		}
	}

	if date := rec[types.ColumnTransactionDate]; RequiredString(date) && !DateFieldAt(date, v.now) {
		errs = append(errs, types.ValidationError{
			Row:       row,
			Column:    types.ColumnTransactionDate,
			Error:     MsgDate,
			ErrorType: types.ErrInvalidDate,
		})
	}

	if amount := rec[types.ColumnAmount]; RequiredString(amount) && !AmountField(amount) {
		errs = append(errs, types.ValidationError{
			Row:       row,
			Column:    types.ColumnAmount,
			Error:     MsgAmount,
			ErrorType: types.ErrInvalidType,
		})
	}

	return errs
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// FormatErrors formats errors for console output, one per line.
func FormatErrors(errs []types.ValidationError) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Validation Errors (%d):\n", len(errs)))
	for _, e := range errs {
		sb.WriteString("  ")
		sb.WriteString(e.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
