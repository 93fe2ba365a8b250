package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width and always UTC so lexicographic order on
// created_at matches chronological order, which the pagination tie-break
// relies on.
const timeLayout = "2006-01-02 15:04:05.000000000"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// PingContext backs the readiness probe.
func (r *SQLiteRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create inserts the transaction and stamps its bookkeeping timestamps.
func (r *SQLiteRepository) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, type, amount_cents, currency, category, description, receipt_id, tx_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, tx.ID, tx.UserID, string(tx.Type), tx.Amount.Cents, tx.Currency, tx.Category,
		tx.Description, tx.ReceiptID, tx.Date.String(), now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, core.StorageUnavailable("insert transaction", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"tx_date", tx.Date.String())

	return tx, nil
}

// Get returns the transaction only when it exists and belongs to userID.
func (r *SQLiteRepository) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, amount_cents, currency, category, description, receipt_id, tx_date, created_at, updated_at
		FROM transactions
		WHERE id = ? AND user_id = ?
	`, id, userID)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.NotFoundf("transaction not found")
		}
		return core.Transaction{}, core.StorageUnavailable("get transaction", err)
	}
	return tx, nil
}

// Update applies the non-nil fields of upd and returns the updated record.
func (r *SQLiteRepository) Update(ctx context.Context, userID, id string, upd core.TransactionUpdate) (core.Transaction, error) {
	set := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(timeLayout)}

	if upd.Type != nil {
		set = append(set, "type = ?")
		args = append(args, string(*upd.Type))
	}
	if upd.Amount != nil {
		set = append(set, "amount_cents = ?")
		args = append(args, upd.Amount.Cents)
	}
	if upd.Currency != nil {
		set = append(set, "currency = ?")
		args = append(args, *upd.Currency)
	}
	if upd.Category != nil {
		set = append(set, "category = ?")
		args = append(args, *upd.Category)
	}
	if upd.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Date != nil {
		set = append(set, "tx_date = ?")
		args = append(args, upd.Date.String())
	}
	if upd.ReceiptID != nil {
		set = append(set, "receipt_id = ?")
		args = append(args, *upd.ReceiptID)
	}
	args = append(args, id, userID)

	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET "+strings.Join(set, ", ")+" WHERE id = ? AND user_id = ?", args...)
	if err != nil {
		return core.Transaction{}, core.StorageUnavailable("update transaction", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, core.StorageUnavailable("update transaction", err)
	}
	if affected == 0 {
		return core.Transaction{}, core.NotFoundf("transaction not found")
	}

	return r.Get(ctx, userID, id)
}

// Delete removes the transaction when owned by userID.
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return core.StorageUnavailable("delete transaction", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.StorageUnavailable("delete transaction", err)
	}
	if affected == 0 {
		return core.NotFoundf("transaction not found")
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

// List returns one page of matching transactions plus the total match count.
// Sort is date descending, then creation order descending, then id, so
// pagination stays stable among same-date records.
func (r *SQLiteRepository) List(ctx context.Context, userID string, f core.Filter, p core.Page) ([]core.Transaction, int, error) {
	p = p.Normalize()
	where, args := filterClauses(userID, f)

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, core.StorageUnavailable("count transactions", err)
	}

	query := `
		SELECT id, user_id, type, amount_cents, currency, category, description, receipt_id, tx_date, created_at, updated_at
		FROM transactions
		WHERE ` + where + `
		ORDER BY tx_date DESC, created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return nil, 0, core.StorageUnavailable("list transactions", err)
	}
	defer rows.Close()

	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, core.StorageUnavailable("list transactions", err)
	}
	return txs, total, nil
}

// Matching returns every transaction the filter selects, for the in-memory
// grouping pass of the aggregation engine.
func (r *SQLiteRepository) Matching(ctx context.Context, userID string, f core.Filter) ([]core.Transaction, error) {
	where, args := filterClauses(userID, f)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount_cents, currency, category, description, receipt_id, tx_date, created_at, updated_at
		FROM transactions
		WHERE `+where+`
		ORDER BY tx_date ASC, created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, core.StorageUnavailable("query ledger", err)
	}
	defer rows.Close()

	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, core.StorageUnavailable("query ledger", err)
	}
	return txs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		txType               string
		category             sql.NullString
		txDate               string
		createdAt, updatedAt string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &txType, &tx.Amount.Cents, &tx.Currency,
		&category, &tx.Description, &tx.ReceiptID, &txDate, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}

	tx.Type = core.TransactionType(txType)
	if category.Valid {
		tx.Category = &category.String
	}
	if tx.Date, err = core.ParseDate(txDate); err != nil {
		return core.Transaction{}, fmt.Errorf("parse tx_date %q: %w", txDate, err)
	}
	if tx.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if tx.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return tx, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}
