/*
Copyright © 2025 changheonshin
*/
package txn

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Move is one executed move inside a transaction.
type Move struct {
	From   string `db:"src"`
	To     string `db:"dst"`
	RuleID string `db:"rule_id"`
}

// Transaction is the durable record of one applied run: every move in
// execution order plus the directories removed by the empty-folder cleanup.
// UndoneAt is nil while the transaction is still pending.
type Transaction struct {
	ID             string     `db:"id"`
	CreatedAt      time.Time  `db:"created_at"`
	SourceDir      string     `db:"source_dir"`
	DestinationDir string     `db:"destination_dir"`
	UndoneAt       *time.Time `db:"undone_at"`
	Moves          []Move     `db:"-"`
	RemovedDirs    []string   `db:"-"`
}

// Pending reports whether the transaction can still be undone.
func (t Transaction) Pending() bool {
	return t.UndoneAt == nil
}

// StoreInterface defines the persistence operations for transaction records.
type StoreInterface interface {
	// Init initializes the store and creates the schema if needed.
	Init() error
	// Save persists a transaction with its moves and removed directories.
	Save(record Transaction) error
	// List returns all transactions, newest first, fully populated.
	List() ([]Transaction, error)
	// Get returns one transaction by id, fully populated.
	Get(id string) (Transaction, error)
	// MarkUndone stamps a pending transaction as undone. It is an error if
	// the transaction does not exist or was already undone.
	MarkUndone(id string, at time.Time) error
	// Delete removes a transaction and returns how many records were deleted.
	Delete(id string) (int, error)
	// DeleteOlderThan removes transactions created before the cutoff.
	DeleteOlderThan(cutoff time.Time) (int, error)
	// CountOlderThan counts transactions created before the cutoff.
	CountOlderThan(cutoff time.Time) (int, error)
	// Close closes the underlying database.
	Close() error
}

// Store is the SQLite-backed transaction store.
type Store struct {
	db     *sqlx.DB
	dbPath string
}

// NewStore creates a store for the given database path. Call Init before use.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// NewTransactionID returns a sortable, collision-safe transaction id.
func NewTransactionID(now time.Time) string {
	return now.Format("20060102-150405") + "-" + uuid.New().String()[:8]
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id              TEXT PRIMARY KEY,
	created_at      DATETIME NOT NULL,
	source_dir      TEXT NOT NULL,
	destination_dir TEXT NOT NULL,
	undone_at       DATETIME
);

CREATE TABLE IF NOT EXISTS transaction_moves (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	seq            INTEGER NOT NULL,
	src            TEXT NOT NULL,
	dst            TEXT NOT NULL,
	rule_id        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transaction_dirs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
	seq            INTEGER NOT NULL,
	path           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transaction_moves_txn ON transaction_moves(transaction_id);
CREATE INDEX IF NOT EXISTS idx_transaction_dirs_txn ON transaction_dirs(transaction_id);
`

// Init opens the database and creates the schema.
func (s *Store) Init() error {
	if dir := filepath.Dir(s.dbPath); !strings.HasPrefix(s.dbPath, ":memory:") && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := s.dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.db = db
	return nil
}

// Save persists one transaction atomically.
func (s *Store) Save(record Transaction) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO transactions (id, created_at, source_dir, destination_dir, undone_at) VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.CreatedAt, record.SourceDir, record.DestinationDir, record.UndoneAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	for seq, move := range record.Moves {
		_, err = tx.Exec(
			`INSERT INTO transaction_moves (transaction_id, seq, src, dst, rule_id) VALUES (?, ?, ?, ?, ?)`,
			record.ID, seq, move.From, move.To, move.RuleID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert move: %w", err)
		}
	}
	for seq, dir := range record.RemovedDirs {
		_, err = tx.Exec(
			`INSERT INTO transaction_dirs (transaction_id, seq, path) VALUES (?, ?, ?)`,
			record.ID, seq, dir,
		)
		if err != nil {
			return fmt.Errorf("failed to insert removed dir: %w", err)
		}
	}

	return tx.Commit()
}

// List returns every transaction newest first, with moves and removed
// directories populated in their original order.
func (s *Store) List() ([]Transaction, error) {
	var records []Transaction
	err := s.db.Select(&records,
		`SELECT id, created_at, source_dir, destination_dir, undone_at
		 FROM transactions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	for i := range records {
		if err := s.loadDetails(&records[i]); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Get returns one transaction by id, fully populated.
func (s *Store) Get(id string) (Transaction, error) {
	var record Transaction
	err := s.db.Get(&record,
		`SELECT id, created_at, source_dir, destination_dir, undone_at
		 FROM transactions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, fmt.Errorf("transaction '%s' not found", id)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to load transaction: %w", err)
	}
	if err := s.loadDetails(&record); err != nil {
		return Transaction{}, err
	}
	return record, nil
}

// loadDetails populates the moves and removed directories of one record in
// their original order.
func (s *Store) loadDetails(record *Transaction) error {
	err := s.db.Select(&record.Moves,
		`SELECT src, dst, rule_id FROM transaction_moves WHERE transaction_id = ? ORDER BY seq`,
		record.ID)
	if err != nil {
		return fmt.Errorf("failed to load moves for %s: %w", record.ID, err)
	}
	err = s.db.Select(&record.RemovedDirs,
		`SELECT path FROM transaction_dirs WHERE transaction_id = ? ORDER BY seq`,
		record.ID)
	if err != nil {
		return fmt.Errorf("failed to load removed dirs for %s: %w", record.ID, err)
	}
	return nil
}

// MarkUndone stamps a pending transaction as undone at the given time.
func (s *Store) MarkUndone(id string, at time.Time) error {
	result, err := s.db.Exec(
		`UPDATE transactions SET undone_at = ? WHERE id = ? AND undone_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction undone: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction '%s' not found or already undone", id)
	}
	return nil
}

// Delete removes one transaction by id.
func (s *Store) Delete(id string) (int, error) {
	result, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return int(affected), nil
}

// DeleteOlderThan removes all transactions created before the cutoff.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int, error) {
	result, err := s.db.Exec(`DELETE FROM transactions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old transactions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check delete result: %w", err)
	}
	return int(affected), nil
}

// CountOlderThan counts transactions created before the cutoff.
func (s *Store) CountOlderThan(cutoff time.Time) (int, error) {
	var count int
	err := s.db.Get(&count, `SELECT COUNT(*) FROM transactions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to count old transactions: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
