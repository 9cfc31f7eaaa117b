// =============================================================================
// Merchant Fee Intake - XLSX Parser Module
// =============================================================================
//
// This module reads spreadsheet uploads. Only the first sheet of the workbook
// is used; any further sheets are ignored.
//
// SHEET LAYOUT:
//   Row 1       : column headers (transaction_id, transaction_date, ...)
//   Row 2..n    : one transaction per row
//
//   Rows with no non-blank cell are skipped in the same way as blank lines
//   in a CSV upload, so row numbering is identical for both formats.
//
// CELL VALUES:
//   Cells are read as Excel displays them (formatted text). A date typed as
//   25/12/2025 in a text cell arrives unchanged; a date stored as a date cell
//   arrives in the cell's number format.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// PARSER
// =============================================================================

// Parser reads the first sheet of an XLSX workbook.
type Parser struct{}

// New creates a spreadsheet parser.
func New() *Parser {
	return &Parser{}
}

// Parse implements the tabular adapter contract.
func (p *Parser) Parse(r io.Reader) ([][]string, error) {
	return Parse(r)
}

// Parse reads the first sheet of the workbook in r.
//
// RETURNS:
//   - The header row followed by the data rows. Data rows are padded or cut
//     to the header width so every header column has a cell. Every cell is
//     trimmed. A sheet with no non-blank rows yields an empty slice.
//   - An error if the workbook cannot be opened or the sheet cannot be read.
func Parse(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rawRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheetName, err)
	}

	rows := make([][]string, 0, len(rawRows))
	width := -1

	for _, raw := range rawRows {
		if isRowEmpty(raw) {
			continue
		}

		if width < 0 {
			header := trimCells(raw)
			width = len(header)
			rows = append(rows, header)
			continue
		}

		rows = append(rows, fitRow(trimCells(raw), width))
	}

	return rows, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks whether every cell in the row is blank.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// trimCells returns a trimmed copy of row.
func trimCells(row []string) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}

// fitRow pads row with empty cells, or cuts it, to exactly width cells.
// excelize omits trailing empty cells, so short rows are normal.
func fitRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
