package api

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/manual"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// DraftCreateRequest selects the schema of a new session.
type DraftCreateRequest struct {
	Schema string `json:"schema"`
}

// DraftUpdateRequest sets one field of one row.
type DraftUpdateRequest struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (h *Handler) CreateDraft(c *fiber.Ctx) error {
	var req DraftCreateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid request body")
		}
	}
	schemaName, cols, err := h.schema(req.Schema)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}

	id := h.drafts.Create(schemaName, cols)
	resp, err := h.draftResponse(id)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handler) GetDraft(c *fiber.Ctx) error {
	return h.editDraft(c, func(*manual.Editor) error { return nil })
}

func (h *Handler) DeleteDraft(c *fiber.Ctx) error {
	if err := h.drafts.Delete(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) AddDraftRow(c *fiber.Ctx) error {
	return h.editDraft(c, func(e *manual.Editor) error {
		e.Add()
		return nil
	})
}

func (h *Handler) UpdateDraftRow(c *fiber.Ctx) error {
	index, err := rowIndex(c)
	if err != nil {
		return err
	}
	var req DraftUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	return h.editDraft(c, func(e *manual.Editor) error {
		return e.Update(index, req.Field, req.Value)
	})
}

func (h *Handler) RemoveDraftRow(c *fiber.Ctx) error {
	index, err := rowIndex(c)
	if err != nil {
		return err
	}
	return h.editDraft(c, func(e *manual.Editor) error {
		return e.Remove(index)
	})
}

func (h *Handler) DuplicateDraftRow(c *fiber.Ctx) error {
	index, err := rowIndex(c)
	if err != nil {
		return err
	}
	return h.editDraft(c, func(e *manual.Editor) error {
		return e.Duplicate(index)
	})
}

func (h *Handler) ClearDraft(c *fiber.Ctx) error {
	return h.editDraft(c, func(e *manual.Editor) error {
		e.ClearAll()
		return nil
	})
}

// ValidateDraft runs the session's rows through the manual pipeline. The
// rows are left as they are so the user can fix what was reported.
func (h *Handler) ValidateDraft(c *fiber.Ctx) error {
	id := c.Params("id")
	schemaName, err := h.drafts.Schema(id)
	if err != nil {
		return err
	}

	var result types.ValidationResult
	if err := h.drafts.Do(id, func(e *manual.Editor) error {
		result = e.Validate(h.pipeline)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(h.validationResponse(schemaName, result))
}

// editDraft applies fn to the session named in the path and answers with the
// session's rows.
func (h *Handler) editDraft(c *fiber.Ctx, fn func(*manual.Editor) error) error {
	id := c.Params("id")
	if err := h.drafts.Do(id, fn); err != nil {
		return err
	}
	resp, err := h.draftResponse(id)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func (h *Handler) draftResponse(id string) (DraftResponse, error) {
	schemaName, err := h.drafts.Schema(id)
	if err != nil {
		return DraftResponse{}, err
	}
	resp := DraftResponse{ID: id, Schema: schemaName}
	err = h.drafts.Do(id, func(e *manual.Editor) error {
		resp.Columns = e.Columns()
		resp.Rows = e.Rows()
		return nil
	})
	return resp, err
}

func rowIndex(c *fiber.Ctx) (int, error) {
	index, err := c.ParamsInt("index")
	if err != nil {
		return 0, fmt.Errorf("row index %q: %w", c.Params("index"), apperrors.ErrValidation)
	}
	return index, nil
}
