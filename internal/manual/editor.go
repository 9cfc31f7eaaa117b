// =============================================================================
// Merchant Fee Intake - Manual Row Editor
// =============================================================================
//
// The editor holds transaction drafts typed in by hand before they are sent
// through the intake pipeline. It always holds at least one draft; a fresh
// editor starts with a single draft whose fields are the schema's columns,
// all empty.
//
// OPERATIONS:
//   Add        append an empty draft
//   Remove     delete draft i (refused when it is the last one)
//   Duplicate  copy draft i and insert the copy right after it
//   Update     set one field of draft i
//   ClearAll   back to a single empty draft
//   Validate   run the drafts through the manual path of the pipeline
//
// An Editor is not safe for concurrent use. Store serialises access for
// callers that share editors across goroutines.
//
// =============================================================================

package manual

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/intake"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
	"github.com/ginjaninja78/merchant-fee-intake/internal/validation"
)

// ErrLastRow is returned when removing the only remaining draft.
var ErrLastRow = fmt.Errorf("at least one transaction row is required: %w", apperrors.ErrValidation)

// Draft is one manually entered row. Values are kept as entered: strings
// from a form, numbers from JSON.
type Draft map[string]any

// Editor is an ordered list of drafts for one schema.
type Editor struct {
	cols   types.RequiredColumnSet
	drafts []Draft
}

// NewEditor creates an editor holding one empty draft.
func NewEditor(cols types.RequiredColumnSet) *Editor {
	e := &Editor{cols: cols.Normalize()}
	e.drafts = []Draft{e.emptyDraft()}
	return e
}

// Columns returns the editor's required columns.
func (e *Editor) Columns() types.RequiredColumnSet {
	return append(types.RequiredColumnSet(nil), e.cols...)
}

// Len returns the number of drafts.
func (e *Editor) Len() int {
	return len(e.drafts)
}

// Add appends an empty draft and returns its index.
func (e *Editor) Add() int {
	e.drafts = append(e.drafts, e.emptyDraft())
	return len(e.drafts) - 1
}

// Remove deletes draft i.
func (e *Editor) Remove(i int) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	if len(e.drafts) == 1 {
		return ErrLastRow
	}
	e.drafts = append(e.drafts[:i], e.drafts[i+1:]...)
	return nil
}

// Duplicate inserts a copy of draft i at position i+1.
func (e *Editor) Duplicate(i int) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	dup := cloneDraft(e.drafts[i])
	e.drafts = append(e.drafts, nil)
	copy(e.drafts[i+2:], e.drafts[i+1:])
	e.drafts[i+1] = dup
	return nil
}

// Update sets field of draft i to value. Field names are normalised the
// same way as file headers.
func (e *Editor) Update(i int, field string, value any) error {
	if err := e.checkIndex(i); err != nil {
		return err
	}
	name := types.NormalizeHeader(field)
	if name == "" {
		return fmt.Errorf("field name is empty: %w", apperrors.ErrValidation)
	}
	e.drafts[i][name] = value
	return nil
}

// ClearAll resets the editor to a single empty draft.
func (e *Editor) ClearAll() {
	e.drafts = []Draft{e.emptyDraft()}
}

// Rows returns a deep copy of the drafts.
func (e *Editor) Rows() []Draft {
	out := make([]Draft, len(e.drafts))
	for i, d := range e.drafts {
		out[i] = cloneDraft(d)
	}
	return out
}

// Records returns the drafts in the shape the pipeline's manual path takes.
func (e *Editor) Records() []map[string]any {
	out := make([]map[string]any, len(e.drafts))
	for i, d := range e.drafts {
		out[i] = map[string]any(cloneDraft(d))
	}
	return out
}

// Validate runs the drafts through the pipeline. The drafts are not changed.
func (e *Editor) Validate(p *intake.Pipeline) types.ValidationResult {
	return p.ValidateRecords(e.Records(), e.cols)
}

func (e *Editor) emptyDraft() Draft {
	d := make(Draft, len(e.cols))
	for _, col := range e.cols {
		d[col] = ""
	}
	return d
}

func (e *Editor) checkIndex(i int) error {
	if i < 0 || i >= len(e.drafts) {
		return fmt.Errorf("row %d of %d: %w", i, len(e.drafts), apperrors.ErrNotFound)
	}
	return nil
}

func cloneDraft(d Draft) Draft {
	out := make(Draft, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// IsBlank reports whether every field of the draft is empty. Numeric zero
// counts as entered.
func (d Draft) IsBlank() bool {
	for _, v := range d {
		if validation.RequiredField(v) {
			return false
		}
	}
	return true
}

// IsLastRow reports whether err came from removing the only draft.
func IsLastRow(err error) bool {
	return errors.Is(err, ErrLastRow)
}
