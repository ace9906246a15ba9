package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/inkwire-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	key             TEXT PRIMARY KEY,
	display_name    TEXT NOT NULL,
	credential_hash TEXT NOT NULL,
	color           TEXT NOT NULL,
	created_at      DATETIME NOT NULL,
	last_login_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS paths (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL REFERENCES rooms(id),
	owner_key  TEXT NOT NULL,
	owner_name TEXT NOT NULL,
	color      TEXT NOT NULL,
	width      REAL NOT NULL,
	points     TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_paths_room_seq ON paths(room_id, seq);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply an alternative schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== AccountStore implementation ====

// CreateAccount inserts a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, a *store.Account) error {
	query := `
		INSERT INTO accounts (key, display_name, credential_hash, color, created_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.Key, a.DisplayName, a.CredentialHash, a.Color, a.CreatedAt, a.LastLoginAt)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccountByKey retrieves an account by its normalized key.
func (s *SQLiteStore) GetAccountByKey(ctx context.Context, key string) (*store.Account, error) {
	query := `
		SELECT key, display_name, credential_hash, color, created_at, last_login_at
		FROM accounts
		WHERE key = ?
	`
	var a store.Account
	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&a.Key,
		&a.DisplayName,
		&a.CredentialHash,
		&a.Color,
		&a.CreatedAt,
		&a.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query account: %w", err)
	}

	return &a, nil
}

// UpdateDisplayName changes the display name of an account.
func (s *SQLiteStore) UpdateDisplayName(ctx context.Context, key, displayName string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET display_name = ? WHERE key = ?`, displayName, key)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateLastLogin refreshes the last login timestamp.
func (s *SQLiteStore) UpdateLastLogin(ctx context.Context, key string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET last_login_at = ? WHERE key = ?`, at, key)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// FindAccountByDisplayName looks up an account by normalized display name.
func (s *SQLiteStore) FindAccountByDisplayName(ctx context.Context, normalized string) (*store.Account, error) {
	query := `
		SELECT key, display_name, credential_hash, color, created_at, last_login_at
		FROM accounts
		WHERE LOWER(TRIM(display_name)) = ?
	`
	var a store.Account
	err := s.db.QueryRowContext(ctx, query, normalized).Scan(
		&a.Key,
		&a.DisplayName,
		&a.CredentialHash,
		&a.Color,
		&a.CreatedAt,
		&a.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query account by display name: %w", err)
	}

	return &a, nil
}

// ==== CanvasStore implementation ====

// SaveRoomPaths replaces the stored paths of a room in one transaction.
func (s *SQLiteStore) SaveRoomPaths(ctx context.Context, roomID string, createdAt time.Time, paths []store.PathRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rooms (id, created_at) VALUES (?, ?)
		 ON CONFLICT(id) DO NOTHING`, roomID, createdAt); err != nil {
		return fmt.Errorf("upsert room: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM paths WHERE room_id = ?`, roomID); err != nil {
		return fmt.Errorf("delete paths: %w", err)
	}

	insert := `
		INSERT INTO paths (id, room_id, owner_key, owner_name, color, width, points, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, p := range paths {
		if _, err := tx.ExecContext(ctx, insert,
			p.ID, roomID, p.OwnerKey, p.OwnerName, p.Color, p.Width, string(p.Points), p.Seq, p.CreatedAt); err != nil {
			return fmt.Errorf("insert path: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadRooms loads every room with its paths in drawn order.
func (s *SQLiteStore) LoadRooms(ctx context.Context) ([]store.RoomRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at FROM rooms ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []store.RoomRecord
	byID := make(map[string]int)
	for rows.Next() {
		var r store.RoomRecord
		if err := rows.Scan(&r.ID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		byID[r.ID] = len(rooms)
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rooms: %w", err)
	}

	pathRows, err := s.db.QueryContext(ctx, `
		SELECT id, room_id, owner_key, owner_name, color, width, points, seq, created_at
		FROM paths
		ORDER BY room_id, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	defer pathRows.Close()

	for pathRows.Next() {
		var p store.PathRecord
		var points string
		if err := pathRows.Scan(
			&p.ID, &p.RoomID, &p.OwnerKey, &p.OwnerName,
			&p.Color, &p.Width, &points, &p.Seq, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		p.Points = []byte(points)
		if i, ok := byID[p.RoomID]; ok {
			rooms[i].Paths = append(rooms[i].Paths, p)
		}
	}
	if err := pathRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paths: %w", err)
	}

	return rooms, nil
}
