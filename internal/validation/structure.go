package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// Structure error messages.
const (
	MsgEmptyFile      = "File is empty"
	msgMissingColumns = "Missing required columns: %s"
)

// ValidateStructure checks the header row of a parsed table against the
// required columns.
//
// PARAMETERS:
//   - rows: the adapter output, header first.
//   - cols: the required columns, in the order they should be reported.
//
// RETURNS:
//   - The normalised header (lower-cased, trimmed) when the structure is
//     acceptable. Column order in the file is irrelevant; callers look
//     columns up by name.
//   - A single row-0 ValidationError when the input is empty or any
//     required column is missing. No row validation should follow.
func ValidateStructure(rows [][]string, cols types.RequiredColumnSet) ([]string, *types.ValidationError) {
	if len(rows) == 0 {
		return nil, &types.ValidationError{
			Row:       0,
			Column:    types.FileColumn,
			Error:     MsgEmptyFile,
			ErrorType: types.ErrEmptyFile,
		}
	}

	header := NormalizeHeader(rows[0])

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, col := range cols.Normalize() {
		if !present[col] {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		list := strings.Join(missing, ", ")
		return nil, &types.ValidationError{
			Row:       0,
			Column:    list,
			Error:     fmt.Sprintf(msgMissingColumns, list),
			ErrorType: types.ErrMissingColumns,
		}
	}

	return header, nil
}

// NormalizeHeader lower-cases and trims every header cell.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = types.NormalizeHeader(h)
	}
	return out
}
