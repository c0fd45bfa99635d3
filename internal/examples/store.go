// Package examples stores the example passages offered to clients and the
// history of answered questions.
package examples

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrExampleNotFound = errors.New("example not found")

type Example struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Context   string    `yaml:"context"`
	Question  string    `yaml:"question"`
	CreatedAt time.Time `yaml:"-"`
}

type PredictionRecord struct {
	ID         string
	Question   string
	Answer     string
	Confidence float64
	Backend    string
	CreatedAt  time.Time
}

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at path. File databases use WAL and wait
// on a locked database instead of failing with SQLITE_BUSY.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err = store.initTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func dsn(path string) string {
	const busy = "_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		return path + "?" + busy
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + busy + "&_pragma=journal_mode(WAL)"
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS examples (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			context TEXT NOT NULL,
			question TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			confidence REAL NOT NULL,
			backend TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);`,
	}
	for _, stmt := range tables {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

// Seed inserts the examples, keeping any record whose id already exists.
// Examples without an id get a fresh UUID. It returns how many rows were added.
func (s *Store) Seed(ctx context.Context, examples []Example) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	added := 0
	now := time.Now().UTC()
	for _, ex := range examples {
		id := ex.ID
		if id == "" {
			id = uuid.NewString()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO examples (id, title, context, question, created_at) VALUES (?, ?, ?, ?, ?)`,
			id, ex.Title, ex.Context, ex.Question, now.UnixNano(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert example %q: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Debug("Seeded examples", "offered", len(examples), "added", added)
	return added, nil
}

// SeedIfEmpty seeds only a store that holds no examples yet.
func (s *Store) SeedIfEmpty(ctx context.Context, examples []Example) (int, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	return s.Seed(ctx, examples)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM examples`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) Get(ctx context.Context, id string) (Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, context, question, created_at FROM examples WHERE id = ?`, id)
	return scanExample(row)
}

// Random returns any stored example.
func (s *Store) Random(ctx context.Context) (Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, context, question, created_at FROM examples ORDER BY RANDOM() LIMIT 1`)
	return scanExample(row)
}

func (s *Store) List(ctx context.Context) ([]Example, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, context, question, created_at FROM examples ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Example
	for rows.Next() {
		ex, err := scanExample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (s *Store) RecordPrediction(ctx context.Context, rec PredictionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, question, answer, confidence, backend, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Question, rec.Answer, rec.Confidence, rec.Backend, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record prediction: %w", err)
	}
	return nil
}

// RecentPredictions returns up to limit records, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question, answer, confidence, backend, created_at FROM predictions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PredictionRecord
	for rows.Next() {
		var rec PredictionRecord
		var created int64
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Answer, &rec.Confidence, &rec.Backend, &created); err != nil {
			return nil, err
		}
		rec.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExample(row scanner) (Example, error) {
	var ex Example
	var created int64
	err := row.Scan(&ex.ID, &ex.Title, &ex.Context, &ex.Question, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Example{}, ErrExampleNotFound
	}
	if err != nil {
		return Example{}, err
	}
	ex.CreatedAt = time.Unix(0, created).UTC()
	return ex, nil
}
