package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"rehook/internal/platform/models"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save persists a run summary. Saving the same run twice replaces the row, so
// a summary updated after a partial failure can be written again.
func (r *RunRepository) Save(run *models.RunSummary) error {
	failuresJSON, err := json.Marshal(run.Failures)
	if err != nil {
		return err
	}

	query := `
		INSERT OR REPLACE INTO runs (
			id, state, started_at, finished_at,
			files_scanned, files_with_webhooks, resources_found, total_webhooks,
			channels_created, channels_reused, webhooks_created,
			files_updated, replacements, files_backed_up,
			failures, report_dir, backup_dir
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		run.ID, run.State, run.StartedAt, run.FinishedAt,
		run.Stats.FilesScanned, run.Stats.FilesWithWebhooks, run.Stats.ResourcesFound, run.Stats.TotalWebhooks,
		run.ChannelsCreated, run.ChannelsReused, run.WebhooksCreated,
		run.FilesUpdated, run.Replacements, run.FilesBackedUp,
		string(failuresJSON), run.ReportDir, run.BackupDir,
	)
	return err
}

// SaveMappings persists the old-to-new URL records produced by a run.
func (r *RunRepository) SaveMappings(runID string, records []models.WebhookRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO run_mappings (id, run_id, resource, channel_id, old_url, new_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, rec := range records {
		id := "map_" + uuid.New().String()
		if _, err := stmt.Exec(id, runID, rec.Resource, rec.ChannelID, rec.OldURL, rec.NewURL, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Last returns the most recent run, or nil when the store is empty.
func (r *RunRepository) Last() (*models.RunSummary, error) {
	query := selectRunColumns + ` ORDER BY started_at DESC LIMIT 1`
	run, err := scanRun(r.db.QueryRow(query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// GetByID returns one run, or nil when it does not exist.
func (r *RunRepository) GetByID(id string) (*models.RunSummary, error) {
	query := selectRunColumns + ` WHERE id = ?`
	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// Recent returns up to limit runs, newest first.
func (r *RunRepository) Recent(limit int) ([]*models.RunSummary, error) {
	query := selectRunColumns + ` ORDER BY started_at DESC LIMIT ?`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// MappingsForRun returns the URL records persisted for one run.
func (r *RunRepository) MappingsForRun(runID string) ([]*models.WebhookRecord, error) {
	query := `SELECT resource, channel_id, old_url, new_url FROM run_mappings WHERE run_id = ? ORDER BY resource, old_url`
	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.WebhookRecord
	for rows.Next() {
		var rec models.WebhookRecord
		var channelID, newURL sql.NullString
		if err := rows.Scan(&rec.Resource, &channelID, &rec.OldURL, &newURL); err != nil {
			return nil, err
		}
		rec.ChannelID = channelID.String
		rec.NewURL = newURL.String
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// DeleteBefore removes runs that started before cutoff, with their mappings.
// Returns the number of runs removed.
func (r *RunRepository) DeleteBefore(cutoff int64) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM run_mappings WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`, cutoff); err != nil {
		return 0, err
	}

	res, err := tx.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	deleted, _ := res.RowsAffected()

	return deleted, tx.Commit()
}

const selectRunColumns = `
	SELECT id, state, started_at, finished_at,
		files_scanned, files_with_webhooks, resources_found, total_webhooks,
		channels_created, channels_reused, webhooks_created,
		files_updated, replacements, files_backed_up,
		failures, report_dir, backup_dir
	FROM runs`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.RunSummary, error) {
	var run models.RunSummary
	var failuresStr sql.NullString
	var reportDir, backupDir sql.NullString

	err := row.Scan(
		&run.ID, &run.State, &run.StartedAt, &run.FinishedAt,
		&run.Stats.FilesScanned, &run.Stats.FilesWithWebhooks, &run.Stats.ResourcesFound, &run.Stats.TotalWebhooks,
		&run.ChannelsCreated, &run.ChannelsReused, &run.WebhooksCreated,
		&run.FilesUpdated, &run.Replacements, &run.FilesBackedUp,
		&failuresStr, &reportDir, &backupDir,
	)
	if err != nil {
		return nil, err
	}

	if failuresStr.Valid && failuresStr.String != "" {
		json.Unmarshal([]byte(failuresStr.String), &run.Failures)
	}
	run.ReportDir = reportDir.String
	run.BackupDir = backupDir.String

	return &run, nil
}
