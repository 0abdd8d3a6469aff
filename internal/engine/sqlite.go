package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/celerix-dev/circadian-store/pkg/schema"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// SQLiteStore keeps each log collection in its own table with an index on date.
type SQLiteStore struct {
	db   *sql.DB
	path string
	opts options
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		path = "circadian.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: create dirs: %w", ErrStorage, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrStorage, err)
	}
	// A single connection serializes writers and keeps the file lock uncontended.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, opts: buildOptions(opts)}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	for _, c := range schema.LogCollections {
		ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_date ON %[1]s(date, id);`, c)
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("%w: create %s table: %w", ErrStorage, c, err)
		}
	}
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		return fmt.Errorf("%w: create settings table: %w", ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec schema.Record) (int64, error) {
	stored, err := prepare(rec, s.opts.now())
	if err != nil {
		return 0, err
	}
	stored.Meta().ID = 0
	payload, err := json.Marshal(stored)
	if err != nil {
		return 0, fmt.Errorf("encode record: %w", err)
	}

	c := stored.Collection()
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s(date, payload) VALUES(?, ?)`, c),
		stored.Meta().Date, payload)
	if err != nil {
		return 0, fmt.Errorf("%w: insert %s: %w", ErrStorage, c, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert %s: %w", ErrStorage, c, err)
	}
	return id, nil
}

func (s *SQLiteStore) Replace(ctx context.Context, rec schema.Record) error {
	stored, err := prepare(rec, s.opts.now())
	if err != nil {
		return err
	}
	id := stored.Meta().ID
	if id == 0 {
		_, err := s.Insert(ctx, stored)
		return err
	}
	stored.Meta().ID = 0
	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	c := stored.Collection()
	_, err = s.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s(id, date, payload) VALUES(?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET date=excluded.date, payload=excluded.payload`, c),
		id, stored.Meta().Date, payload)
	if err != nil {
		return fmt.Errorf("%w: replace %s/%d: %w", ErrStorage, c, id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, c schema.Collection, id int64) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c), id); err != nil {
		return fmt.Errorf("%w: delete %s/%d: %w", ErrStorage, c, id, err)
	}
	return nil
}

func (s *SQLiteStore) FetchAll(ctx context.Context, c schema.Collection) ([]schema.Record, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	return s.query(ctx, c, fmt.Sprintf(`SELECT id, payload FROM %s ORDER BY id`, c))
}

func (s *SQLiteStore) FetchByDate(ctx context.Context, c schema.Collection, date string) ([]schema.Record, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	return s.query(ctx, c, fmt.Sprintf(`SELECT id, payload FROM %s WHERE date = ? ORDER BY id`, c), date)
}

func (s *SQLiteStore) FetchByDateRange(ctx context.Context, c schema.Collection, start, end string) ([]schema.Record, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	return s.query(ctx, c,
		fmt.Sprintf(`SELECT id, payload FROM %s WHERE date >= ? AND date <= ? ORDER BY date, id`, c),
		start, end)
}

func (s *SQLiteStore) query(ctx context.Context, c schema.Collection, q string, args ...any) ([]schema.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", ErrStorage, c, err)
	}
	defer func() { _ = rows.Close() }()

	out := []schema.Record{}
	for rows.Next() {
		var (
			id      int64
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", ErrStorage, c, err)
		}
		rec := c.New()
		if err := json.Unmarshal(payload, rec); err != nil {
			return nil, fmt.Errorf("%w: corrupt %s/%d: %w", ErrStorage, c, id, err)
		}
		rec.Meta().ID = id
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %w", ErrStorage, c, err)
	}
	return out, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, c schema.Collection) error {
	if err := checkCollection(c); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, c)); err != nil {
		return fmt.Errorf("%w: clear %s: %w", ErrStorage, c, err)
	}
	return nil
}

// ClearAll empties every log collection, one at a time. Settings are kept.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	for _, c := range schema.LogCollections {
		if err := s.Clear(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var val []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get setting %q: %w", ErrStorage, key, err)
	}
	return json.RawMessage(val), true, nil
}

func (s *SQLiteStore) PutSetting(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %q: %w", key, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO settings(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, raw); err != nil {
		return fmt.Errorf("%w: put setting %q: %w", ErrStorage, key, err)
	}
	return nil
}

func (s *SQLiteStore) ListSettings(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("%w: list settings: %w", ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var (
			key string
			val []byte
		)
		if err := rows.Scan(&key, &val); err != nil {
			return nil, fmt.Errorf("%w: scan settings: %w", ErrStorage, err)
		}
		out[key] = json.RawMessage(val)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate settings: %w", ErrStorage, err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *SQLiteStore) Path() string { return s.path }
