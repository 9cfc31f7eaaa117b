// =============================================================================
// Merchant Fee Intake - CSV Parser Module
// =============================================================================
//
// This module turns a delimited-text upload into the tabular shape every
// downstream stage works with: a header row followed by data rows, each a
// slice of trimmed cell strings.
//
// FEATURES:
//   - Configurable delimiter (comma, semicolon, pipe, tab)
//   - Quoted fields, including quoted delimiters and embedded newlines
//   - Rows of uneven width (short rows are padded later, by column name)
//   - UTF-8 byte order mark on the first cell is removed
//   - Lines that are blank after trimming are dropped silently
//
// BLANK LINES:
//   A line is blank when it holds nothing but whitespace. Such lines are not
//   data rows and do not take part in row numbering. A line made only of
//   delimiters (",,,,") is NOT blank; it is kept and will fail the required
//   field checks.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
)

const byteOrderMark = "\uFEFF"

// =============================================================================
// PARSER
// =============================================================================

// Parser reads delimited text with fixed settings.
type Parser struct {
	settings config.CSVSettings
}

// New creates a parser. Zero-value settings mean comma-separated.
func New(settings config.CSVSettings) *Parser {
	return &Parser{settings: settings}
}

// Parse implements the tabular adapter contract.
func (p *Parser) Parse(r io.Reader) ([][]string, error) {
	return Parse(r, p.settings)
}

// Parse reads all records from r.
//
// PARAMETERS:
//   - r: the raw upload.
//   - settings: delimiter configuration.
//
// RETURNS:
//   - The header row followed by the data rows, blank lines removed and
//     every cell trimmed. An input with no non-blank lines yields an empty
//     slice, which the structure check reports as an empty file.
//   - An error if the text cannot be decoded.
func Parse(r io.Reader, settings config.CSVSettings) ([][]string, error) {
	csvReader := csv.NewReader(bufio.NewReader(r))
	configureReader(csvReader, settings)

	var rows [][]string
	first := true

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if first && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], byteOrderMark)
			first = false
		}

		cleaned := cleanRecord(record)
		if isBlankRecord(cleaned) {
			continue
		}
		rows = append(rows, cleaned)
	}

	if rows == nil {
		rows = [][]string{}
	}
	return rows, nil
}

// configureReader applies the delimiter settings to the reader.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = delimiterRune(settings.Delimiter)

	// Uneven rows are legal; missing trailing cells become "".
	reader.FieldsPerRecord = -1

	// Legacy exports often carry stray quotes inside unquoted fields.
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false
}

// delimiterRune resolves the configured delimiter name or character.
func delimiterRune(delimiter string) rune {
	switch strings.ToLower(delimiter) {
	case "", ",", "comma":
		return ','
	case "\\t", "\t", "tab":
		return '\t'
	case "|", "pipe":
		return '|'
	case ";", "semicolon":
		return ';'
	}

	r, _ := utf8.DecodeRuneInString(delimiter)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

// cleanRecord trims every cell.
func cleanRecord(record []string) []string {
	out := make([]string, len(record))
	for i, cell := range record {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}

// isBlankRecord reports whether the source line held only whitespace.
// encoding/csv already drops completely empty lines; a whitespace-only line
// arrives as a single empty field.
func isBlankRecord(record []string) bool {
	return len(record) == 0 || (len(record) == 1 && record[0] == "")
}
