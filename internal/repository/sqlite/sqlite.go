// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// ONE FILE PER USER:
// Each user gets their own database file, <dir>/<username>.db, created on first
// access. A Store only knows the directory; every repository call opens the
// user's file, does its work and closes it again. There is no pool shared
// between requests.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C compiler is
// needed. sqlx sits on top of database/sql to scan rows straight into structs
// via their `db:"..."` tags.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// busyTimeoutMillis is how long a connection waits for another request's
// write lock on the same file before failing with SQLITE_BUSY.
const busyTimeoutMillis = 5000

// Store opens per-user database files under a fixed directory.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a Store rooted there.
func New(dir string) (*Store, error) {
	// 0755 = owner can read/write/execute, others can read/execute.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: creating data directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the per-user files.
func (s *Store) Dir() string {
	return s.dir
}

// FileName is the base name of the database file for username.
// Callers must validate the username first; it is used verbatim.
func (s *Store) FileName(username string) string {
	return username + ".db"
}

func (s *Store) path(username string) string {
	return filepath.Join(s.dir, s.FileName(username))
}

// userDB is an open handle on one user's database file.
type userDB struct {
	conn *sqlx.DB
}

// open opens (or creates) the user's database and makes sure the schema exists.
//
// ALWAYS DEFER CLOSE:
//
//	db, err := s.open(ctx, username)
//	if err != nil { ... }
//	defer db.Close()
func (s *Store) open(ctx context.Context, username string) (*userDB, error) {
	conn, err := Open(ctx, s.path(username))
	if err != nil {
		return nil, err
	}

	db := &userDB{conn: conn}
	if err := db.migrate(ctx, username); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations for %s: %w", username, err)
	}
	return db, nil
}

func (db *userDB) Close() error {
	return db.conn.Close()
}

// Open opens a SQLite file with the pragmas every handle in this application uses.
// It is shared with the client's local store.
//
// A single connection per handle: the handle lives for one request (or one CLI
// command), and pragmas such as busy_timeout are per-connection.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	conn, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	// Ping verifies the file can actually be opened; sql.Open is lazy.
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database %s: %w", path, err)
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis),
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	return conn, nil
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS makes it safe to run on
// every open.
//
// TABLES:
//   - user_data    append-only snapshot history
//   - user_profile current profile, one row per username
//   - workouts, meals, goals  current collections, replaced on every save
func (db *userDB) migrate(ctx context.Context, username string) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_data (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT,
			username  TEXT,
			height    REAL,
			weight    REAL,
			age       REAL,
			gender    TEXT,
			data_json TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_user_data_username ON user_data(username);
	`)
	if err != nil {
		return fmt.Errorf("creating user_data table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_profile (
			username TEXT PRIMARY KEY,
			height   REAL,
			weight   REAL,
			age      REAL,
			gender   TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_profile table: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS workouts (
			id          TEXT PRIMARY KEY,
			date        TEXT,
			type        TEXT,
			duration    REAL,
			description TEXT,
			distance    REAL
		);
		CREATE TABLE IF NOT EXISTS meals (
			id       TEXT PRIMARY KEY,
			date     TEXT,
			name     TEXT,
			calories REAL,
			protein  REAL,
			carbs    REAL,
			fat      REAL,
			mealType TEXT
		);
		CREATE TABLE IF NOT EXISTS goals (
			id          TEXT PRIMARY KEY,
			title       TEXT,
			description TEXT,
			target      REAL,
			current     REAL,
			unit        TEXT,
			startDate   TEXT,
			endDate     TEXT,
			type        TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("creating collection tables: %w", err)
	}

	// The collection tables started out without an owner column and relied on
	// the file name alone. Every row now carries its username; files created
	// before that get the column added in place, and their rows are handed to
	// the file's owner so saves can still replace them.
	for _, table := range []string{"workouts", "meals", "goals"} {
		if err := db.addColumnIfNotExists(ctx, table, "username", "TEXT NOT NULL DEFAULT ''"); err != nil {
			return fmt.Errorf("adding username to %s: %w", table, err)
		}
		_, err := db.conn.ExecContext(ctx, fmt.Sprintf(
			`UPDATE %s SET username = ? WHERE username = ''`, table,
		), username)
		if err != nil {
			return fmt.Errorf("backfilling %s owner: %w", table, err)
		}
		_, err = db.conn.ExecContext(ctx, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_username ON %s(username)`, table, table,
		))
		if err != nil {
			return fmt.Errorf("creating %s username index: %w", table, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent — safe to run multiple times.
func (db *userDB) addColumnIfNotExists(ctx context.Context, table, column, definition string) error {
	var count int
	err := db.conn.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.ExecContext(ctx, fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
