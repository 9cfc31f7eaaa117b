package intake

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

const header = "transaction_id,transaction_date,merchant_id,amount,transaction_type,card_type"

func fixedClock() time.Time {
	return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.Local)
}

func newTestPipeline() *Pipeline {
	return New(WithClock(fixedClock))
}

func validateCSV(t *testing.T, p *Pipeline, body string, cols types.RequiredColumnSet) types.ValidationResult {
	t.Helper()
	result, err := p.ValidateFile("batch.csv", "text/csv", strings.NewReader(body), cols)
	require.NoError(t, err)
	return result
}

func TestScenarioAcceptsCleanBatch(t *testing.T) {
	result := validateCSV(t, newTestPipeline(), header+"\nTXN001,25/12/2025,M123,99.99,Purchase,Visa\n", types.StandardColumns)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Data, 1)
	assert.Equal(t, types.TransactionRecord{
		"transaction_id":   "TXN001",
		"transaction_date": "25/12/2025",
		"merchant_id":      "M123",
		"amount":           "99.99",
		"transaction_type": "Purchase",
		"card_type":        "Visa",
	}, result.Data[0])
}

func TestScenarioMissingDate(t *testing.T) {
	result := validateCSV(t, newTestPipeline(), header+"\nTXN001,,M123,99.99,Purchase,Visa\n", types.StandardColumns)

	assert.False(t, result.Valid)
	assert.Empty(t, result.Data)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Row)
	assert.Equal(t, "transaction_date", result.Errors[0].Column)
	assert.Contains(t, result.Errors[0].Error, "empty")
}

func TestScenarioDuplicateAttributedToSecondRow(t *testing.T) {
	body := header + "\n" +
		"TXN001,25/12/2025,M123,99.99,Purchase,Visa\n" +
		"TXN001,26/12/2025,M123,10.00,Purchase,Visa\n"
	result := validateCSV(t, newTestPipeline(), body, types.StandardColumns)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "transaction_id", result.Errors[0].Column)
	assert.Contains(t, result.Errors[0].Error, "Duplicate")

	require.Len(t, result.Data, 1)
	assert.Equal(t, "99.99", result.Data[0]["amount"])
}

func TestScenarioMissingColumnsExtendedSchema(t *testing.T) {
	body := "transaction_id,transaction_date,merchant_id,amount,transaction_type\n" +
		"TXN001,25/12/2025,M123,99.99,Purchase\n" +
		"TXN002,25/12/2025,M123,99.99,Purchase\n"
	result := validateCSV(t, newTestPipeline(), body, types.ExtendedColumns)

	assert.False(t, result.Valid)
	assert.Empty(t, result.Data)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Column, "card_type")
	assert.Contains(t, result.Errors[0].Column, "card_brand")
	assert.Equal(t, types.ErrMissingColumns, result.Errors[0].ErrorType)
}

func TestEmptyFileIsStructuralError(t *testing.T) {
	result := validateCSV(t, newTestPipeline(), "\n  \n", types.StandardColumns)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, types.ValidationError{
		Row: 0, Column: "file", Error: "File is empty", ErrorType: types.ErrEmptyFile,
	}, result.Errors[0])
}

func TestHeaderOnlyFileIsValid(t *testing.T) {
	result := validateCSV(t, newTestPipeline(), header+"\n", types.StandardColumns)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Data)
	assert.NotNil(t, result.Data)
}

func TestRowIndependence(t *testing.T) {
	body := header + "\n" +
		"TXN001,25/12/2025,M123,99.99,Purchase,Visa\n" +
		"TXN002,25/12/2025,M123,0,Purchase,Visa\n" +
		"TXN003,25/12/2025,M123,5,Purchase,Visa\n"
	result := validateCSV(t, newTestPipeline(), body, types.StandardColumns)

	require.Len(t, result.Data, 2)
	for _, rec := range result.Data {
		assert.NotEqual(t, "TXN002", rec["transaction_id"])
	}
	assert.Equal(t, []int{2}, result.ErroredRows())
	assert.Equal(t, 3, result.TotalRows())
}

func TestBlankLinesDoNotShiftRowNumbers(t *testing.T) {
	body := header + "\n\n" +
		"TXN001,25/12/2025,M123,99.99,Purchase,Visa\n" +
		"   \n" +
		"TXN002,25/12/2025,M123,abc,Purchase,Visa\n" +
		",,,,,\n"
	result := validateCSV(t, newTestPipeline(), body, types.StandardColumns)

	rows := result.ErroredRows()
	assert.Equal(t, []int{2, 3}, rows)

	missing := 0
	for _, e := range result.Errors {
		if e.Row == 3 {
			assert.Equal(t, types.ErrMissingValue, e.ErrorType)
			missing++
		}
	}
	assert.Equal(t, 6, missing)
}

func TestColumnOrderAndCaseDoNotMatter(t *testing.T) {
	body := " CARD_TYPE , Amount,transaction_id,merchant_id,Transaction_Type,transaction_date,notes\n" +
		"Visa,12.50,TXN9,M1,Sale,1/2/2025,hello\n"
	result := validateCSV(t, newTestPipeline(), body, types.StandardColumns)

	require.True(t, result.Valid)
	assert.Equal(t, "12.50", result.Data[0]["amount"])
	assert.Equal(t, "hello", result.Data[0]["notes"])
}

func TestShortRowsArePadded(t *testing.T) {
	result := validateCSV(t, newTestPipeline(), header+"\nTXN001,25/12/2025,M123\n", types.StandardColumns)

	require.Len(t, result.Errors, 3)
	for _, e := range result.Errors {
		assert.Equal(t, types.ErrMissingValue, e.ErrorType)
	}
}

func TestValidationIsIdempotent(t *testing.T) {
	p := newTestPipeline()
	body := header + "\n" +
		"TXN001,25/12/2025,M123,99.99,Purchase,Visa\n" +
		"TXN001,31/02/2025,M123,-1,Purchase,Visa\n"

	first := validateCSV(t, p, body, types.StandardColumns)
	second := validateCSV(t, p, body, types.StandardColumns)
	assert.Equal(t, first, second)
}

func TestFutureDateRejected(t *testing.T) {
	result := validateCSV(t, newTestPipeline(), header+"\nTXN001,16/03/2026,M123,1,Sale,Visa\n", types.StandardColumns)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, types.ErrInvalidDate, result.Errors[0].ErrorType)
}

func TestUnsupportedFormat(t *testing.T) {
	reader := &countingReader{}
	_, err := newTestPipeline().ValidateFile("statement.pdf", "application/pdf", reader, types.StandardColumns)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFormat))
	var unsupported *UnsupportedFormatError
	assert.True(t, errors.As(err, &unsupported))
	assert.Zero(t, reader.reads)

	result := FileError(err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, types.ErrUnsupportedFormat, result.Errors[0].ErrorType)
}

func TestCorruptWorkbookIsReadError(t *testing.T) {
	_, err := newTestPipeline().ValidateFile("batch.xlsx", "", strings.NewReader("not a zip"), types.StandardColumns)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRead))
	assert.Equal(t, types.ErrReadFailure, FileError(err).Errors[0].ErrorType)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        Format
		wantErr     bool
	}{
		{"batch.csv", "", FormatCSV, false},
		{"BATCH.CSV", "", FormatCSV, false},
		{"batch.xlsx", "", FormatXLSX, false},
		{"batch.XLS", "", FormatXLSX, false},
		{"upload", "text/csv; charset=utf-8", FormatCSV, false},
		{"upload", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX, false},
		{"batch.txt", "text/plain", "", true},
		{"batch.pdf", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"|"+tt.contentType, func(t *testing.T) {
			got, err := DetectFormat(tt.name, tt.contentType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateXLSXMatchesCSV(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Transaction_ID", "Transaction_Date", "Merchant_ID", "Amount", "Transaction_Type", "Card_Type"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"TXN001", "25/12/2025", "M123", 99.99, "Purchase", "Visa"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"TXN002", "25/12/2025", "M123", -3, "Purchase", "Visa"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	result, err := newTestPipeline().ValidateFile("batch.xlsx", "", buf, types.StandardColumns)
	require.NoError(t, err)

	require.Len(t, result.Data, 1)
	assert.Equal(t, "99.99", result.Data[0]["amount"])
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "amount", result.Errors[0].Column)
}

func TestValidateRecordsManualPath(t *testing.T) {
	records := []map[string]any{
		{
			"transaction_id":   "M-1",
			"transaction_date": "2025-12-25",
			"merchant_id":      "M123",
			"amount":           0,
			"transaction_type": "Sale",
			"card_type":        "Visa",
		},
		{
			"Transaction_ID":   "M-2",
			"transaction_date": "25122025",
			"merchant_id":      "M123",
			"amount":           json.Number("12.5"),
			"transaction_type": "Sale",
			"card_type":        "Visa",
		},
		{
			"transaction_id": "M-2",
			"amount":         decimal.RequireFromString("1.25"),
		},
	}

	result := newTestPipeline().ValidateRecords(records, types.StandardColumns)

	require.Len(t, result.Data, 1)
	assert.Equal(t, "M-2", result.Data[0]["transaction_id"])
	assert.Equal(t, "12.5", result.Data[0]["amount"])

	var row1 []types.ValidationError
	for _, e := range result.Errors {
		if e.Row == 1 {
			row1 = append(row1, e)
		}
	}
	require.Len(t, row1, 1, "numeric zero is present but not a positive amount")
	assert.Equal(t, types.ErrInvalidType, row1[0].ErrorType)

	var dup bool
	for _, e := range result.Errors {
		if e.Row == 3 && e.ErrorType == types.ErrDuplicate {
			dup = true
		}
	}
	assert.True(t, dup)
}

func TestPreviewNeverTruncatesResult(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for i := 0; i < 25; i++ {
		sb.WriteString("TXN" + string(rune('A'+i)) + ",25/12/2025,M1,1.00,Sale,Visa\n")
	}
	p := New(WithClock(fixedClock), WithPreviewRows(10))
	result := validateCSV(t, p, sb.String(), types.StandardColumns)

	assert.Len(t, result.Data, 25)
	assert.Len(t, p.Preview(result.Data), 10)
	assert.Len(t, Preview(result.Data[:3], 10), 3)
	assert.Empty(t, Preview(result.Data, -1))
}

func TestValidatePathAndDiscover(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte(header+"\nTXN001,25/12/2025,M123,99.99,Purchase,Visa\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	files, err := DiscoverFiles([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{good}, files)

	outcome := newTestPipeline().ValidatePath(good, types.StandardColumns)
	assert.NoError(t, outcome.Err)
	assert.True(t, outcome.Accepted())

	missing := newTestPipeline().ValidatePath(filepath.Join(dir, "gone.csv"), types.StandardColumns)
	assert.ErrorIs(t, missing.Err, apperrors.ErrRead)
	assert.False(t, missing.Accepted())
}

type countingReader struct {
	reads int
}

func (r *countingReader) Read(p []byte) (int, error) {
	r.reads++
	return 0, io.EOF
}
