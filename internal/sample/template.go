// Package sample builds the downloadable CSV template for a schema.
package sample

import (
	"bytes"
	"encoding/csv"

	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

// exampleRows holds two filled-in transactions keyed by column. Columns a
// schema adds beyond these are left blank in the template.
var exampleRows = []map[string]string{
	{
		types.ColumnTransactionID:   "TXN001",
		types.ColumnTransactionDate: "17/01/2026",
		types.ColumnMerchantID:      "M12345",
		types.ColumnAmount:          "500.00",
		types.ColumnTransactionType: "Sale",
		types.ColumnCardType:        "Visa",
		types.ColumnCardBrand:       "Visa Classic",
	},
	{
		types.ColumnTransactionID:   "TXN002",
		types.ColumnTransactionDate: "18/01/2026",
		types.ColumnMerchantID:      "M12345",
		types.ColumnAmount:          "250.50",
		types.ColumnTransactionType: "Sale",
		types.ColumnCardType:        "Mastercard",
		types.ColumnCardBrand:       "Mastercard Gold",
	},
}

// FileName is the suggested download name.
const FileName = "transaction_template.csv"

// TemplateCSV returns a CSV document with the schema's columns as header and
// two example rows.
func TemplateCSV(cols types.RequiredColumnSet) ([]byte, error) {
	header := cols.Normalize()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, example := range exampleRows {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = example[col]
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
