package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/manual"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// ValidationResponse is returned by every endpoint that validates a batch.
type ValidationResponse struct {
	Success      bool                      `json:"success"`
	BatchID      string                    `json:"batchId,omitempty"`
	FileName     string                    `json:"fileName,omitempty"`
	Schema       string                    `json:"schema"`
	Valid        bool                      `json:"valid"`
	TotalRecords int                       `json:"totalRecords"`
	ErrorCount   int                       `json:"errorCount"`
	Message      string                    `json:"message"`
	Errors       []types.ValidationError   `json:"errors"`
	Preview      []types.TransactionRecord `json:"preview"`
	Data         []types.TransactionRecord `json:"data"`
}

func (h *Handler) validationResponse(schema string, result types.ValidationResult) ValidationResponse {
	return ValidationResponse{
		Success:      result.Valid,
		Schema:       schema,
		Valid:        result.Valid,
		TotalRecords: len(result.Data),
		ErrorCount:   result.ErrorCount(),
		Message:      result.Summary(),
		Errors:       result.Errors,
		Preview:      h.pipeline.Preview(result.Data),
		Data:         result.Data,
	}
}

// DraftResponse describes a manual entry session.
type DraftResponse struct {
	ID      string                  `json:"id"`
	Schema  string                  `json:"schema"`
	Columns types.RequiredColumnSet `json:"columns"`
	Rows    []manual.Draft          `json:"rows"`
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrUnsupportedFormat):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrRead):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrDuplicate):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrSubmission):
		return fiber.StatusBadGateway
	case errors.Is(err, apperrors.ErrStorageDisabled):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}
