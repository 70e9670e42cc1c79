package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"despesas/internal/core"
	"despesas/internal/records"

	_ "modernc.org/sqlite"
)

var _ records.Store = (*SQLiteRepository)(nil)

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

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// FetchRecords implements records.Fetcher
func (r *SQLiteRepository) FetchRecords(ctx context.Context, card core.Card, year int, month *int) ([]core.RawExpenseRecord, error) {
	if !card.IsValid() {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCard, card)
	}

	// table names come from the closed Card set, never from input
	query := "SELECT despesa, categoria, valor, mes, ano FROM " + card.Table() + " WHERE ano = ?"
	args := []any{year}
	if month != nil {
		query += " AND mes = ?"
		args = append(args, *month)
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", card.Table(), err)
	}
	defer rows.Close()

	var out []core.RawExpenseRecord
	for rows.Next() {
		var (
			rec       core.RawExpenseRecord
			categoria sql.NullString
			valor     sql.NullFloat64
		)
		if err := rows.Scan(&rec.Despesa, &categoria, &valor, &rec.Mes, &rec.Ano); err != nil {
			return nil, fmt.Errorf("scan %s: %w", card.Table(), err)
		}
		if categoria.Valid {
			rec.Categoria = &categoria.String
		}
		if valor.Valid {
			rec.Valor = &valor.Float64
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", card.Table(), err)
	}

	slog.DebugContext(ctx, "Records loaded from SQLite",
		"card", card,
		"year", year,
		"records", len(out))

	return out, nil
}

// AppendRecords implements records.Writer. The batch is inserted in one
// transaction.
func (r *SQLiteRepository) AppendRecords(ctx context.Context, card core.Card, recs []core.RawExpenseRecord) (int, error) {
	if !card.IsValid() {
		return 0, fmt.Errorf("%w: %q", core.ErrUnknownCard, card)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+card.Table()+" (despesa, categoria, valor, mes, ano) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range recs {
		var (
			categoria sql.NullString
			valor     sql.NullFloat64
		)
		if rec.Categoria != nil {
			categoria = sql.NullString{String: *rec.Categoria, Valid: true}
		}
		if rec.Valor != nil {
			valor = sql.NullFloat64{Float64: *rec.Valor, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, rec.Despesa, categoria, valor, rec.Mes, rec.Ano); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Records saved to SQLite",
		"card", card,
		"records", len(recs))

	return len(recs), nil
}
