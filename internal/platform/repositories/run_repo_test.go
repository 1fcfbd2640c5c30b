package repositories

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"

	"rehook/internal/platform/database"
	"rehook/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Bootstrap(db); err != nil {
		t.Fatalf("failed to bootstrap schema: %v", err)
	}
	return db
}

func sampleRun(id string, startedAt int64) *models.RunSummary {
	return &models.RunSummary{
		ID:         id,
		State:      "done",
		StartedAt:  startedAt,
		FinishedAt: startedAt + 42,
		Stats: models.ScanStats{
			FilesScanned:      120,
			FilesWithWebhooks: 3,
			ResourcesFound:    2,
			TotalWebhooks:     4,
		},
		ChannelsCreated: 2,
		WebhooksCreated: 4,
		FilesUpdated:    3,
		Replacements:    5,
		FilesBackedUp:   3,
		Failures: []models.Failure{
			{Stage: "provision", Resource: "esx_banking", Reason: "simulated"},
		},
		ReportDir: "webhook_output/20250101_120000",
		BackupDir: "webhook_backups/20250101_120000",
	}
}

func TestRunRepositorySaveAndLast(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	last, err := repo.Last()
	if err != nil {
		t.Fatalf("Last on empty store failed: %v", err)
	}
	if last != nil {
		t.Errorf("Expected nil for empty store, got %+v", last)
	}

	run := sampleRun("run_1", 1000)
	if err := repo.Save(run); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	last, err = repo.Last()
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if last == nil {
		t.Fatal("Expected a run, got nil")
	}
	if last.ID != "run_1" {
		t.Errorf("Expected ID run_1, got %s", last.ID)
	}
	if last.Stats.FilesScanned != 120 {
		t.Errorf("Expected 120 files scanned, got %d", last.Stats.FilesScanned)
	}
	if len(last.Failures) != 1 || last.Failures[0].Resource != "esx_banking" {
		t.Errorf("Failures did not round-trip: %+v", last.Failures)
	}
	if last.ReportDir != run.ReportDir {
		t.Errorf("Expected report dir %s, got %s", run.ReportDir, last.ReportDir)
	}

	// Saving again with updated counts replaces the row.
	run.FilesUpdated = 7
	if err := repo.Save(run); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	last, _ = repo.Last()
	if last.FilesUpdated != 7 {
		t.Errorf("Expected 7 files updated after re-save, got %d", last.FilesUpdated)
	}
}

func TestRunRepositoryRecentAndGetByID(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	for i, id := range []string{"run_a", "run_b", "run_c"} {
		if err := repo.Save(sampleRun(id, int64(1000+i))); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}

	runs, err := repo.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run_c" || runs[1].ID != "run_b" {
		t.Errorf("Expected newest first (run_c, run_b), got (%s, %s)", runs[0].ID, runs[1].ID)
	}

	run, err := repo.GetByID("run_a")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if run == nil || run.ID != "run_a" {
		t.Errorf("Expected run_a, got %+v", run)
	}

	missing, err := repo.GetByID("run_nope")
	if err != nil {
		t.Fatalf("GetByID for missing run failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for missing run, got %+v", missing)
	}
}

func TestRunRepositoryMappings(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	records := []models.WebhookRecord{
		{OldURL: "https://discord.com/api/webhooks/2/b", NewURL: "https://discord.com/api/webhooks/20/bb", ChannelID: "ch2", Resource: "qb-garages"},
		{OldURL: "https://discord.com/api/webhooks/1/a", NewURL: "https://discord.com/api/webhooks/10/aa", ChannelID: "ch1", Resource: "esx_banking"},
	}
	if err := repo.SaveMappings("run_1", records); err != nil {
		t.Fatalf("SaveMappings failed: %v", err)
	}

	got, err := repo.MappingsForRun("run_1")
	if err != nil {
		t.Fatalf("MappingsForRun failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 mappings, got %d", len(got))
	}
	// Ordered by resource.
	if got[0].Resource != "esx_banking" {
		t.Errorf("Expected esx_banking first, got %s", got[0].Resource)
	}
	if got[0].NewURL != "https://discord.com/api/webhooks/10/aa" {
		t.Errorf("Unexpected new URL: %s", got[0].NewURL)
	}

	other, err := repo.MappingsForRun("run_other")
	if err != nil {
		t.Fatalf("MappingsForRun for unknown run failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no mappings for unknown run, got %d", len(other))
	}
}

func TestRunRepositoryDeleteBefore(t *testing.T) {
	repo := NewRunRepository(setupTestDB(t))

	if err := repo.Save(sampleRun("run_old", 100)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Save(sampleRun("run_new", 2000)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.SaveMappings("run_old", []models.WebhookRecord{{OldURL: "u", Resource: "r"}}); err != nil {
		t.Fatalf("SaveMappings failed: %v", err)
	}

	deleted, err := repo.DeleteBefore(1000)
	if err != nil {
		t.Fatalf("DeleteBefore failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted run, got %d", deleted)
	}

	if run, _ := repo.GetByID("run_old"); run != nil {
		t.Errorf("Expected run_old to be deleted, got %+v", run)
	}
	if run, _ := repo.GetByID("run_new"); run == nil {
		t.Error("Expected run_new to survive")
	}
	if maps, _ := repo.MappingsForRun("run_old"); len(maps) != 0 {
		t.Errorf("Expected mappings of deleted run to be gone, got %d", len(maps))
	}
}

func TestRunRepositorySaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT OR REPLACE INTO runs").WillReturnError(sql.ErrConnDone)

	repo := NewRunRepository(db)
	if err := repo.Save(sampleRun("run_1", 1000)); err == nil {
		t.Error("Expected error from failing store, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}
