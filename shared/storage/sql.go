package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"video-summarizer/internal/models"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return DriverPostgres
	}
	return DriverSQLite
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS summaries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	youtube_url   TEXT NOT NULL,
	title         TEXT NOT NULL,
	channel_title TEXT NOT NULL,
	thumbnail_url TEXT NOT NULL,
	summary       TEXT NOT NULL,
	timestamp     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

const postgresSchema = `CREATE TABLE IF NOT EXISTS summaries (
	id            SERIAL PRIMARY KEY,
	youtube_url   TEXT NOT NULL,
	title         TEXT NOT NULL,
	channel_title TEXT NOT NULL,
	thumbnail_url TEXT NOT NULL,
	summary       TEXT NOT NULL,
	timestamp     TIMESTAMPTZ DEFAULT NOW()
)`

const (
	insertQuery = `INSERT INTO summaries (youtube_url, title, channel_title, thumbnail_url, summary)
VALUES (?, ?, ?, ?, ?) RETURNING id`
	listQuery = `SELECT id, youtube_url, title, channel_title, thumbnail_url, summary, timestamp
FROM summaries ORDER BY timestamp DESC, id DESC`
	deleteQuery = `DELETE FROM summaries WHERE id = ?`
)

// SQLStore implements Store over database/sql for SQLite and PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// OpenSQLite opens the database file at path, creating it on first use.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	db.SetMaxIdleConns(0)
	return newSQLStore(db, dialectSQLite), nil
}

// OpenPostgres connects through the pgx database/sql driver.
func OpenPostgres(url string) (*SQLStore, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	// Every operation gets its own connection, closed when it finishes.
	db.SetMaxIdleConns(0)
	return newSQLStore(db, dialectPostgres), nil
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

func (s *SQLStore) Init(ctx context.Context) error {
	schema := sqliteSchema
	if s.dialect == dialectPostgres {
		schema = postgresSchema
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create summaries table (%s): %w", s.dialect, err)
	}
	return nil
}

func (s *SQLStore) Insert(ctx context.Context, summary models.NewSummary) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(insertQuery),
		summary.YouTubeURL,
		summary.Title,
		summary.ChannelTitle,
		summary.ThumbnailURL,
		summary.Summary,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert summary: %w", err)
	}
	return id, nil
}

func (s *SQLStore) List(ctx context.Context) ([]models.Summary, error) {
	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.Summary{}
	for rows.Next() {
		var sum models.Summary
		var ts timestamp
		if err := rows.Scan(&sum.ID, &sum.YouTubeURL, &sum.Title, &sum.ChannelTitle, &sum.ThumbnailURL, &sum.Summary, &ts); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Timestamp = ts.Time
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return summaries, nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(deleteQuery), id); err != nil {
		return fmt.Errorf("delete summary %d: %w", id, err)
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1..$n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// timestamp scans both native time values (PostgreSQL) and the ISO-8601 text
// SQLite stores.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
