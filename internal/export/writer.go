// =============================================================================
// Merchant Fee Intake - Accepted Batch Export
// =============================================================================
//
// Writes the accepted records of a validation pass in one of three formats.
//
// XML STRUCTURE:
//
//   <transactions batch="..." schema="standard" count="2">
//     <transaction n="1">
//       <transaction_id>TXN001</transaction_id>
//       <amount>500.00</amount>
//       ...
//     </transaction>
//     <transaction n="2">
//       ...
//     </transaction>
//   </transactions>
//
// Field order is the schema's column order followed by any other header
// columns in alphabetical order. CSV output uses the same order for its
// header row; JSON output is an array of objects.
//
// =============================================================================

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// Format is an output format.
type Format string

const (
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXML, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q (use xml, csv or json)", s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Options control the XML document.
type Options struct {
	// RootElement wraps the batch. Default: "transactions".
	RootElement string

	// RecordElement wraps each record. Default: "transaction".
	RecordElement string

	// Indent is the indentation unit. Default: two spaces.
	Indent string

	// BatchID and Schema are written as root attributes when set.
	BatchID string
	Schema  string
}

// DefaultOptions returns the default XML options.
func DefaultOptions() Options {
	return Options{
		RootElement:   "transactions",
		RecordElement: "transaction",
		Indent:        "  ",
	}
}

// Write dispatches to the writer for f.
func Write(w io.Writer, f Format, records []types.TransactionRecord, cols types.RequiredColumnSet, opts Options) error {
	switch f {
	case FormatXML:
		return WriteXML(w, records, cols, opts)
	case FormatCSV:
		return WriteCSV(w, records, cols)
	case FormatJSON:
		return WriteJSON(w, records)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// Columns returns the output field order for records.
func Columns(records []types.TransactionRecord, cols types.RequiredColumnSet) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range cols.Normalize() {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	var extra []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// =============================================================================
// CSV / JSON
// =============================================================================

// WriteCSV writes a header row and one row per record.
func WriteCSV(w io.Writer, records []types.TransactionRecord, cols types.RequiredColumnSet) error {
	order := Columns(records, cols)
	cw := csv.NewWriter(w)

	if err := cw.Write(order); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	row := make([]string, len(order))
	for _, rec := range records {
		for i, c := range order {
			row[i] = rec[c]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, records []types.TransactionRecord) error {
	if records == nil {
		records = []types.TransactionRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// =============================================================================
// XML
// =============================================================================

type attr struct {
	name  string
	value string
}

type element struct {
	name     string
	attrs    []attr
	value    string
	children []element
}

// WriteXML writes the records as an XML document.
func WriteXML(w io.Writer, records []types.TransactionRecord, cols types.RequiredColumnSet, opts Options) error {
	opts = withDefaults(opts)
	order := Columns(records, cols)

	root := element{name: tagName(opts.RootElement)}
	if opts.BatchID != "" {
		root.attrs = append(root.attrs, attr{"batch", opts.BatchID})
	}
	if opts.Schema != "" {
		root.attrs = append(root.attrs, attr{"schema", opts.Schema})
	}
	root.attrs = append(root.attrs, attr{"count", strconv.Itoa(len(records))})

	for i, rec := range records {
		txn := element{
			name:  tagName(opts.RecordElement),
			attrs: []attr{{"n", strconv.Itoa(i + 1)}},
		}
		for _, c := range order {
			txn.children = append(txn.children, element{name: tagName(c), value: rec[c]})
		}
		root.children = append(root.children, txn)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	writeElement(&buf, root, opts.Indent, 0)

	_, err := w.Write(buf.Bytes())
	return err
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.RootElement == "" {
		opts.RootElement = def.RootElement
	}
	if opts.RecordElement == "" {
		opts.RecordElement = def.RecordElement
	}
	if opts.Indent == "" {
		opts.Indent = def.Indent
	}
	return opts
}

// writeElement writes an element and its children at the given depth. Empty
// leaf elements are self-closing.
func writeElement(buf *bytes.Buffer, el element, indent string, level int) {
	buf.WriteString(strings.Repeat(indent, level))
	buf.WriteString("<")
	buf.WriteString(el.name)
	for _, a := range el.attrs {
		fmt.Fprintf(buf, " %s=\"%s\"", a.name, escape(a.value))
	}

	if len(el.children) == 0 && el.value == "" {
		buf.WriteString("/>\n")
		return
	}
	buf.WriteString(">")

	if len(el.children) == 0 {
		buf.WriteString(escape(el.value))
	} else {
		buf.WriteString("\n")
		for _, child := range el.children {
			writeElement(buf, child, indent, level+1)
		}
		buf.WriteString(strings.Repeat(indent, level))
	}

	buf.WriteString("</")
	buf.WriteString(el.name)
	buf.WriteString(">\n")
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// tagName turns a column name into a valid XML element name.
func tagName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case (r >= '0' && r <= '9') || r == '-' || r == '.':
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
