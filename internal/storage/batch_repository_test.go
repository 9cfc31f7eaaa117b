package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/apperrors"
	"github.com/ginjaninja78/merchant-fee-intake/internal/config"
	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.Local)

func record(id, date, amount string) types.TransactionRecord {
	return types.TransactionRecord{
		"transaction_id":   id,
		"transaction_date": date,
		"merchant_id":      "M123",
		"amount":           amount,
		"transaction_type": "Sale",
		"card_type":        "Visa",
	}
}

// fakeTx records statements. Methods the repository does not call are left
// to the embedded nil interface.
type fakeTx struct {
	pgx.Tx
	statements []string
	args       [][]any
	failOn     int
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.statements = append(f.statements, sql)
	f.args = append(f.args, args)
	if f.failOn > 0 && len(f.statements) == f.failOn {
		return pgconn.CommandTag{}, errors.New("exec failed")
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	return d.tx, nil
}

func (d *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func TestInsertBatchQuery(t *testing.T) {
	result := types.NewResult([]types.TransactionRecord{record("T1", "25/12/2025", "10")}, nil)
	b := NewBatch("march.csv", "standard", SourceFile, result, testNow)

	sql, args, err := insertBatchQuery(b).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO intake_batches (id,file_name,schema_name,source,total_records,error_count,created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)",
		sql)
	assert.Equal(t, []any{b.ID, "march.csv", "standard", "file", 1, 0, testNow}, args)
}

func TestInsertTransactionsQuery(t *testing.T) {
	id := uuid.New()
	recs := []types.TransactionRecord{
		record("T1", "25/12/2025", "10.50"),
		{"transaction_id": "T2", "amount": "oops"},
	}

	builder, err := insertTransactionsQuery(id, 5, recs, testNow)
	require.NoError(t, err)
	sql, args, err := builder.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO intake_transactions (batch_id,row_index,transaction_id,transaction_date,merchant_id,amount,transaction_type,card_type,fields)")
	assert.Contains(t, sql, "($10,$11,$12,$13,$14,$15,$16,$17,$18)")
	require.Len(t, args, 18)

	assert.Equal(t, id, args[0])
	assert.Equal(t, 5, args[1])
	assert.Equal(t, "T1", args[2])
	assert.Equal(t, time.Date(2025, time.December, 25, 0, 0, 0, 0, time.Local), args[3])
	assert.True(t, decimal.RequireFromString("10.50").Equal(args[5].(decimal.Decimal)))

	var fields map[string]string
	require.NoError(t, json.Unmarshal([]byte(args[8].(string)), &fields))
	assert.Equal(t, "Visa", fields["card_type"])

	// second record: unparsable or missing values become NULL
	assert.Equal(t, 6, args[10])
	assert.Nil(t, args[12])
	assert.Nil(t, args[13])
	assert.Nil(t, args[14])
}

func TestListBatchesQuery(t *testing.T) {
	sql, _, err := listBatchesQuery(20).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, file_name, schema_name, source, total_records, error_count, created_at FROM intake_batches ORDER BY created_at DESC LIMIT 20",
		sql)
}

func TestSaveBatchChunksAndCommits(t *testing.T) {
	tx := &fakeTx{}
	repo := NewBatchRepository(&fakeDB{tx: tx}, zap.NewNop())

	recs := make([]types.TransactionRecord, insertChunk+1)
	for i := range recs {
		recs[i] = record(uuid.NewString(), "01/01/2026", "1")
	}
	b := NewBatch("big.csv", "standard", SourceFile, types.NewResult(recs, nil), testNow)

	require.NoError(t, repo.SaveBatch(context.Background(), b, recs))

	require.Len(t, tx.statements, 3)
	assert.Contains(t, tx.statements[0], "intake_batches")
	assert.Contains(t, tx.statements[1], "intake_transactions")
	assert.Len(t, tx.args[2], len(transactionColumns))
	assert.Equal(t, insertChunk, tx.args[2][1])
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestSaveBatchRollsBackOnFailure(t *testing.T) {
	tx := &fakeTx{failOn: 2}
	repo := NewBatchRepository(&fakeDB{tx: tx}, zap.NewNop())
	recs := []types.TransactionRecord{record("T1", "01/01/2026", "1")}
	b := NewBatch("x.csv", "standard", SourceManual, types.NewResult(recs, nil), testNow)

	err := repo.SaveBatch(context.Background(), b, recs)

	assert.Error(t, err)
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"migrations/000001_create_intake_batches.up.sql",
		"migrations/000001_create_intake_batches.down.sql",
	}, names)
}

func TestStorageDisabledWithoutURL(t *testing.T) {
	_, err := NewPool(context.Background(), config.DatabaseConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrStorageDisabled)

	_, err = Migrate("", zap.NewNop())
	assert.ErrorIs(t, err, apperrors.ErrStorageDisabled)
}
