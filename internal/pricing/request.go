// =============================================================================
// Merchant Fee Intake - Fee Calculation Request
// =============================================================================
//
// A calculation request pairs an accepted transaction batch with the
// merchant's fee-structure parameters. The request is checked here before it
// is handed to a Client; the calculation itself belongs to the pricing
// backend.
//
// RULES:
//   mcc            exactly 4 digits
//   feeStructure   percentage | percentage_fixed | fixed
//   fixedFee       required for percentage_fixed and fixed, never negative
//   minimumFee     optional, never negative
//   currentRate    optional, 0 to 100 (percent)
//   transactions   at least one
//
// =============================================================================

package pricing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
	"github.com/ginjaninja78/merchant-fee-intake/internal/validation"
)

// FeeStructure names how the merchant is charged.
type FeeStructure string

const (
	FeePercentage      FeeStructure = "percentage"
	FeePercentageFixed FeeStructure = "percentage_fixed"
	FeeFixed           FeeStructure = "fixed"
)

// NeedsFixedFee reports whether the structure carries a per-transaction fee.
func (f FeeStructure) NeedsFixedFee() bool {
	return f == FeePercentageFixed || f == FeeFixed
}

// Params are the fee-structure fields entered alongside a batch.
type Params struct {
	MCC          string           `json:"mcc" validate:"required,len=4,number"`
	FeeStructure FeeStructure     `json:"feeStructure" validate:"required,oneof=percentage percentage_fixed fixed"`
	FixedFee     *decimal.Decimal `json:"fixedFee,omitempty"`
	MinimumFee   *decimal.Decimal `json:"minimumFee,omitempty"`
	CurrentRate  *decimal.Decimal `json:"currentRate,omitempty"`
}

// Request is what a Client submits.
type Request struct {
	Params
	Transactions []types.TransactionRecord `json:"transactions" validate:"required,min=1"`
}

// FieldError is one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every rejected field of a request.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "invalid fee parameters: " + strings.Join(parts, "; ")
}

func (e FieldErrors) Unwrap() error {
	return apperrors.ErrValidation
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the fee parameters only.
func (p Params) Validate() error {
	return collect(validate.Struct(p), p.checkFees())
}

// Validate checks the fee parameters and that the batch is not empty.
func (r Request) Validate() error {
	return collect(validate.Struct(r), r.checkFees())
}

func (p Params) checkFees() FieldErrors {
	var errs FieldErrors

	if p.FeeStructure.NeedsFixedFee() && p.FixedFee == nil {
		errs = append(errs, FieldError{"fixedFee", "Fixed fee is required for this fee structure"})
	}
	if p.FixedFee != nil && p.FixedFee.IsNegative() {
		errs = append(errs, FieldError{"fixedFee", "Fixed fee cannot be negative"})
	}
	if p.MinimumFee != nil && p.MinimumFee.IsNegative() {
		errs = append(errs, FieldError{"minimumFee", "Minimum fee cannot be negative"})
	}
	if p.CurrentRate != nil && !validation.RangeField(p.CurrentRate.String(), 0, 100) {
		errs = append(errs, FieldError{"currentRate", "Current rate must be between 0 and 100"})
	}
	return errs
}

func collect(structErr error, extra FieldErrors) error {
	var errs FieldErrors

	if structErr != nil {
		var verrs validator.ValidationErrors
		if !errors.As(structErr, &verrs) {
			return fmt.Errorf("validate fee parameters: %w", structErr)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{Field: fe.Field(), Message: message(fe)})
		}
	}
	errs = append(errs, extra...)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "mcc":
		return "MCC must be exactly 4 digits"
	case "feeStructure":
		return "Please select a fee structure"
	case "transactions":
		return "At least one validated transaction is required"
	}
	return fmt.Sprintf("failed on %s", fe.Tag())
}
