package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/podcast-automation/errors"
	"github.com/nijaru/podcast-automation/models"
)

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'in_progress',
	stage TEXT NOT NULL DEFAULT '',
	video_path TEXT NOT NULL DEFAULT '',
	audio_path TEXT NOT NULL DEFAULT '',
	transcript_path TEXT NOT NULL DEFAULT '',
	descriptions_path TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`

const selectColumns = `SELECT id, url, title, status, stage, video_path, audio_path,
	transcript_path, descriptions_path, error, created_at, updated_at FROM runs`

// Store is the run ledger kept for `process` invocations.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	logrus.WithField("path", dbPath).Debug("Initializing database")

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, pkgerrors.Wrap(err, "error creating directory for database")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "error opening database")
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "error creating table")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateRun(ctx context.Context, url, title string) (*models.Run, error) {
	now := time.Now().UTC()
	run := &models.Run{
		ID:        uuid.New().String(),
		URL:       url,
		Title:     title,
		Status:    models.StatusInProgress,
		Stage:     models.StageDownload,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.exec(ctx,
		`INSERT INTO runs (id, url, title, status, stage, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.URL, run.Title, run.Status, run.Stage, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Store) UpdateRun(ctx context.Context, run *models.Run) error {
	run.UpdatedAt = time.Now().UTC()
	return s.exec(ctx,
		`UPDATE runs SET status = ?, stage = ?, video_path = ?, audio_path = ?, transcript_path = ?,
			descriptions_path = ?, error = ?, updated_at = ? WHERE id = ?`,
		run.Status, run.Stage, run.VideoPath, run.AudioPath, run.TranscriptPath,
		run.DescriptionsPath, run.Error, run.UpdatedAt, run.ID,
	)
}

func (s *Store) GetRun(ctx context.Context, id string) (*models.Run, error) {
	const op = "db.GetRun"

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(op, err, "Run not found")
		}
		return nil, pkgerrors.Wrap(err, "error querying database")
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "error querying database")
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "error scanning run")
		}
		runs = append(runs, run)
	}
	return runs, pkgerrors.Wrap(rows.Err(), "error iterating runs")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var status, stage string
	err := row.Scan(
		&run.ID, &run.URL, &run.Title, &status, &stage,
		&run.VideoPath, &run.AudioPath, &run.TranscriptPath, &run.DescriptionsPath,
		&run.Error, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = models.Status(status)
	run.Stage = models.Stage(stage)
	return &run, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "error beginning transaction")
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return pkgerrors.Wrap(err, "error preparing statement")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		tx.Rollback()
		return pkgerrors.Wrap(err, "error executing statement")
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.Wrap(err, "error committing transaction")
	}

	return nil
}
