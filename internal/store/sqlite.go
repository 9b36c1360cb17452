package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/storeswitch/itemapi/internal/model"
)

// Default SQLite settings.
const (
	defaultBusyTimeout = 5 * time.Second
)

// SQLiteStore implements Store on a single items table in a file-backed
// SQLite database. The store itself is stateless; it borrows a connection
// from the shared *sql.DB pool for the duration of each call and holds no
// connection across operations. Concurrency safety is delegated to SQLite's
// per-statement atomicity.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLiteStore over an already opened database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenSQLite opens the SQLite database at path with WAL journaling and a
// busy timeout, and creates the schema if it does not exist yet. The schema
// initialization is idempotent and must complete before the store serves
// its first request.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		path, defaultBusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite supports a single writer; serialize access through one
	// pooled connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return db, nil
}

// initSchema creates the items table if it doesn't exist.
func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		price REAL NOT NULL
	);
	`

	_, err := db.Exec(schema)
	return err
}

// List returns all items matching the filter, ordered by ID ascending for
// deterministic results. Filters are translated into a parameterized WHERE
// clause; values are never interpolated into the query string.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]model.Item, error) {
	query := "SELECT id, name, description, price FROM items"

	var (
		conds []string
		args  []any
	)

	if filter.Name != "" {
		conds = append(conds, "LOWER(name) LIKE LOWER(?)")
		args = append(args, "%"+filter.Name+"%")
	}

	if filter.MinPrice > 0 {
		conds = append(conds, "price >= ?")
		args = append(args, filter.MinPrice)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}

	return items, nil
}

// Get retrieves an item by its ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, price FROM items WHERE id = ?", id)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	return &item, nil
}

// Create inserts the draft and reads back the engine-assigned ID.
func (s *SQLiteStore) Create(ctx context.Context, draft model.ItemDraft) (*model.Item, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO items (name, description, price) VALUES (?, ?, ?)",
		draft.Name, nullableString(draft.Description), draft.Price)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted item ID: %w", err)
	}

	return &model.Item{
		ID:          id,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
	}, nil
}

// Update reads the current row, merges the patch, and writes the merged
// record back with a full-column UPDATE inside one transaction. The merged
// record is returned without re-reading; a missing row yields ErrNotFound
// and no write.
func (s *SQLiteStore) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	row := tx.QueryRowContext(ctx,
		"SELECT id, name, description, price FROM items WHERE id = ?", id)

	existing, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read item for update: %w", err)
	}

	merged := patch.Apply(existing)

	result, err := tx.ExecContext(ctx,
		"UPDATE items SET name = ?, description = ?, price = ? WHERE id = ?",
		merged.Name, nullableString(merged.Description), merged.Price, id)
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("read update row count: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	return &merged, nil
}

// Delete removes the row for the ID; the affected-row count distinguishes a
// real deletion from a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read delete row count: %w", err)
	}

	return affected > 0, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reads one item row, mapping a NULL description to the empty
// string.
func scanItem(row rowScanner) (model.Item, error) {
	var (
		item        model.Item
		description sql.NullString
	)

	if err := row.Scan(&item.ID, &item.Name, &description, &item.Price); err != nil {
		return model.Item{}, err
	}

	item.Description = description.String

	return item, nil
}

// nullableString maps the empty string to NULL so an absent description is
// stored the same way the schema declares it: as a nullable column.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
