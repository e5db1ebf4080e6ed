package history

import (
	"context"
	"database/sql"
	"time"

	"ollamahub/internal/models"
	_ "modernc.org/sqlite"
)

// DefaultDSN keeps the database in process memory.
const DefaultDSN = ":memory:"

// SQLite stores turns in a single table. With the default DSN the data
// lives only as long as the process.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Append(ctx context.Context, turn models.ChatTurn) error {
	if err := validTurn(turn); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO turns(role, content, created_at) VALUES(?, ?, ?)",
		turn.Role,
		turn.Content,
		time.Now().Unix(),
	)
	return err
}

func (s *SQLite) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM turns")
	return err
}

func (s *SQLite) Snapshot(ctx context.Context) ([]models.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT role, content FROM turns ORDER BY id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []models.ChatTurn{}
	for rows.Next() {
		var t models.ChatTurn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return turns, nil
}

func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM turns").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
