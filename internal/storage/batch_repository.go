// =============================================================================
// Merchant Fee Intake - Batch Repository
// =============================================================================
//
// Accepted batches are stored as one intake_batches row plus one
// intake_transactions row per accepted record. The well-known columns are
// lifted into typed columns (date, numeric amount); the full record is kept
// in the fields JSONB column so schemas with extra columns lose nothing.
//
// A batch and its rows are written in one database transaction.
//
// =============================================================================

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ginjaninja78/merchant-fee-intake/internal/types"
	"github.com/ginjaninja78/merchant-fee-intake/internal/validation"
)

// Batch sources.
const (
	SourceFile   = "file"
	SourceManual = "manual"
)

// insertChunk keeps each INSERT well below the postgres parameter limit.
const insertChunk = 1000

var transactionColumns = []string{
	"batch_id", "row_index", "transaction_id", "transaction_date", "merchant_id",
	"amount", "transaction_type", "card_type", "fields",
}

// Batch describes one persisted validation pass.
type Batch struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"fileName"`
	Schema       string    `json:"schema"`
	Source       string    `json:"source"`
	TotalRecords int       `json:"totalRecords"`
	ErrorCount   int       `json:"errorCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewBatch builds a Batch for a result with a fresh ID.
func NewBatch(fileName, schema, source string, result types.ValidationResult, now time.Time) Batch {
	return Batch{
		ID:           uuid.New(),
		FileName:     fileName,
		Schema:       schema,
		Source:       source,
		TotalRecords: len(result.Data),
		ErrorCount:   result.ErrorCount(),
		CreatedAt:    now,
	}
}

// BatchStore is what the API needs from persistence.
type BatchStore interface {
	SaveBatch(ctx context.Context, batch Batch, records []types.TransactionRecord) error
	ListBatches(ctx context.Context, limit uint64) ([]Batch, error)
}

// DB is the part of a pgx pool the repository uses.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BatchRepository stores batches in postgres.
type BatchRepository struct {
	db     DB
	logger *zap.Logger
}

func NewBatchRepository(db DB, logger *zap.Logger) *BatchRepository {
	return &BatchRepository{
		db:     db,
		logger: logger,
	}
}

// SaveBatch writes batch and its records in one transaction.
func (r *BatchRepository) SaveBatch(ctx context.Context, batch Batch, records []types.TransactionRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sql, args, err := insertBatchQuery(batch).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch %s: %w", batch.ID, err)
	}

	for start := 0; start < len(records); start += insertChunk {
		end := min(start+insertChunk, len(records))
		builder, err := insertTransactionsQuery(batch.ID, start, records[start:end], batch.CreatedAt)
		if err != nil {
			return err
		}
		sql, args, err := builder.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert transactions for batch %s: %w", batch.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch %s: %w", batch.ID, err)
	}

	r.logger.Info("Batch stored",
		zap.String("batch_id", batch.ID.String()),
		zap.String("file", batch.FileName),
		zap.Int("records", len(records)),
	)
	return nil
}

// ListBatches returns the most recent batches first.
func (r *BatchRepository) ListBatches(ctx context.Context, limit uint64) ([]Batch, error) {
	sql, args, err := listBatchesQuery(limit).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.FileName, &b.Schema, &b.Source, &b.TotalRecords, &b.ErrorCount, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// =============================================================================
// QUERY BUILDERS
// =============================================================================

func insertBatchQuery(b Batch) squirrel.InsertBuilder {
	return squirrel.Insert("intake_batches").
		Columns("id", "file_name", "schema_name", "source", "total_records", "error_count", "created_at").
		Values(b.ID, b.FileName, b.Schema, b.Source, b.TotalRecords, b.ErrorCount, b.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)
}

// insertTransactionsQuery builds one multi-row insert. offset is the index
// of the first record within the batch.
func insertTransactionsQuery(batchID uuid.UUID, offset int, records []types.TransactionRecord, now time.Time) (squirrel.InsertBuilder, error) {
	builder := squirrel.Insert("intake_transactions").
		Columns(transactionColumns...).
		PlaceholderFormat(squirrel.Dollar)

	for i, rec := range records {
		fields, err := json.Marshal(rec)
		if err != nil {
			return builder, fmt.Errorf("encode record %d: %w", offset+i, err)
		}
		builder = builder.Values(
			batchID,
			offset+i,
			rec[types.ColumnTransactionID],
			dateValue(rec[types.ColumnTransactionDate], now),
			nullable(rec[types.ColumnMerchantID]),
			amountValue(rec[types.ColumnAmount]),
			nullable(rec[types.ColumnTransactionType]),
			nullable(rec[types.ColumnCardType]),
			string(fields),
		)
	}
	return builder, nil
}

func listBatchesQuery(limit uint64) squirrel.SelectBuilder {
	q := squirrel.Select("id", "file_name", "schema_name", "source", "total_records", "error_count", "created_at").
		From("intake_batches").
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

func dateValue(v string, now time.Time) any {
	d, err := validation.ParseDate(v, now)
	if err != nil {
		return nil
	}
	return d
}

func amountValue(v string) any {
	d, err := validation.ParseNumber(v)
	if err != nil {
		return nil
	}
	return d
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
