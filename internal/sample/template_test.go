package sample

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/merchant-fee-intake/internal/intake"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

func TestTemplateCSVStandard(t *testing.T) {
	data, err := TemplateCSV(types.StandardColumns)
	require.NoError(t, err)

	assert.Equal(t,
		"transaction_id,transaction_date,merchant_id,amount,transaction_type,card_type\n"+
			"TXN001,17/01/2026,M12345,500.00,Sale,Visa\n"+
			"TXN002,18/01/2026,M12345,250.50,Sale,Mastercard\n",
		string(data))
}

func TestTemplateCSVUnknownColumnBlank(t *testing.T) {
	data, err := TemplateCSV(types.RequiredColumnSet{"Transaction_ID", "terminal"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"transaction_id,terminal", "TXN001,", "TXN002,"}, lines)
}

// The template must pass its own schema's validation.
func TestTemplatePassesValidation(t *testing.T) {
	p := intake.New(intake.WithClock(func() time.Time {
		return time.Date(2026, time.February, 1, 12, 0, 0, 0, time.Local)
	}))

	for _, cols := range []types.RequiredColumnSet{types.StandardColumns, types.ExtendedColumns} {
		data, err := TemplateCSV(cols)
		require.NoError(t, err)

		result, err := p.ValidateFile(FileName, "text/csv", bytes.NewReader(data), cols)
		require.NoError(t, err)
		assert.True(t, result.Valid, result.Errors)
		assert.Len(t, result.Data, 2)
	}
}
