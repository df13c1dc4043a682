// Package runindex keeps a SQLite record of extraction runs and the
// artifacts they produced.
package runindex

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/bag.report/internal/extract"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Index wraps the run-index database.
type Index struct {
	*sql.DB
}

// Open opens (or creates) the index database at path and migrates it to the
// latest schema version.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("runindex: open %s: %w", path, err)
	}

	idx := &Index{db}
	if err := idx.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// migrateUp applies all pending embedded migrations.
func (idx *Index) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("runindex: migrations source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(idx.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("runindex: sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("runindex: migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("runindex: migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// StartRun records the beginning of an extraction run and returns its ID.
func (idx *Index) StartRun(bagPath string) (string, error) {
	runID := uuid.NewString()
	_, err := idx.Exec(`INSERT INTO runs (id, bag_path) VALUES (?, ?)`, runID, bagPath)
	if err != nil {
		return "", fmt.Errorf("runindex: start run: %w", err)
	}
	return runID, nil
}

// FinishRun stores the run-end counters.
func (idx *Index) FinishRun(runID string, s extract.CloudSummary) error {
	_, err := idx.Exec(`
		UPDATE runs SET
			finished_at = CURRENT_TIMESTAMP,
			scans = ?, skipped_scans = ?,
			packets_decoded = ?, packets_dropped = ?, packets_mismatch = ?,
			unknown_modes = ?, points = ?
		WHERE id = ?`,
		s.Scans, s.SkippedScans,
		s.PacketsDecoded, s.PacketsDropped, s.PacketsMismatch,
		s.UnknownModes, s.Points, runID)
	if err != nil {
		return fmt.Errorf("runindex: finish run: %w", err)
	}
	return nil
}

// RecordArtifact stores one exported artifact for a run.
func (idx *Index) RecordArtifact(runID string, a extract.Artifact) error {
	_, err := idx.Exec(`INSERT INTO artifacts (run_id, path, msg_type, topic) VALUES (?, ?, ?, ?)`,
		runID, a.Path, a.MsgType, a.Topic)
	if err != nil {
		return fmt.Errorf("runindex: record artifact: %w", err)
	}
	return nil
}

// RunArtifacts returns the artifacts recorded for a run, in insertion order.
func (idx *Index) RunArtifacts(runID string) ([]extract.Artifact, error) {
	rows, err := idx.Query(`SELECT path, msg_type, topic FROM artifacts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("runindex: query artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []extract.Artifact
	for rows.Next() {
		var a extract.Artifact
		if err := rows.Scan(&a.Path, &a.MsgType, &a.Topic); err != nil {
			return nil, fmt.Errorf("runindex: scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}
