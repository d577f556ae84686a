// pkg/audit/store.go
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/rkeller-lab/deprisk/pkg/model"
)

// Store persists per-stage row-count deltas so silent data-quality
// exclusions remain auditable after the fact.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStore opens (or creates) the SQLite audit database and ensures the
// tracking table exists.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("audit store path cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	if err := store.setupAuditTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup audit table: %w", err)
	}

	return store, nil
}

// setupAuditTable ensures the stage_audit tracking table exists.
func (s *Store) setupAuditTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS stage_audit (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			rows_in INTEGER NOT NULL,
			rows_out INTEGER NOT NULL,
			rows_dropped INTEGER NOT NULL,
			note TEXT,
			recorded_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	s.logger.Info("Ensured stage_audit table exists")
	return nil
}

// RecordStage inserts one stage report.
func (s *Store) RecordStage(report model.StageReport) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_audit
		(run_id, stage, rows_in, rows_out, rows_dropped, note, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID,
		report.Stage,
		report.RowsIn,
		report.RowsOut,
		report.RowsDropped,
		report.Note,
		report.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert stage report: %w", err)
	}

	return nil
}

// RecordRun batch-inserts every stage report of a completed run in one
// transaction.
func (s *Store) RecordRun(report *model.RunReport) error {
	if len(report.Stages) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.Error(err))
			}
		}
	}()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO stage_audit
		(run_id, stage, rows_in, rows_out, rows_dropped, note, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, stage := range report.Stages {
		if _, err = stmt.ExecContext(ctx,
			stage.RunID,
			stage.Stage,
			stage.RowsIn,
			stage.RowsOut,
			stage.RowsDropped,
			stage.Note,
			stage.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to insert stage report: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Recorded run audit trail",
		zap.String("runID", report.ID),
		zap.Int("stages", len(report.Stages)))
	return nil
}

// StageRow is one persisted audit record.
type StageRow struct {
	ID          int64     `db:"id"`
	RunID       string    `db:"run_id"`
	Stage       string    `db:"stage"`
	RowsIn      int       `db:"rows_in"`
	RowsOut     int       `db:"rows_out"`
	RowsDropped int       `db:"rows_dropped"`
	Note        string    `db:"note"`
	RecordedAt  time.Time `db:"recorded_at"`
}

// StagesForRun returns the audit records of one run in insertion order.
func (s *Store) StagesForRun(runID string) ([]StageRow, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var rows []StageRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM stage_audit WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage reports: %w", err)
	}

	return rows, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
