package bot

import (
	"fmt"
	"strings"
	"testing"

	"rehook/internal/engine/run"
	"rehook/internal/platform/config"
	"rehook/internal/platform/models"
)

func TestSummaryEmbed(t *testing.T) {
	summary := &models.RunSummary{
		ID:    "run_abc",
		State: "done",
		Stats: models.ScanStats{
			FilesScanned:      120,
			FilesWithWebhooks: 4,
			ResourcesFound:    3,
			TotalWebhooks:     5,
		},
		ChannelsCreated: 2,
		ChannelsReused:  1,
		WebhooksCreated: 5,
		FilesUpdated:    4,
		Replacements:    6,
		FilesBackedUp:   4,
		ReportDir:       "webhook_output/20240101_120000",
		BackupDir:       "webhook_backups/20240101_120000",
	}

	embed := summaryEmbed(summary)

	if embed.Title != "Webhook Setup Complete" {
		t.Errorf("Expected title 'Webhook Setup Complete', got %q", embed.Title)
	}
	if embed.Color != colorGreen {
		t.Errorf("Expected color %#x, got %#x", colorGreen, embed.Color)
	}
	if len(embed.Fields) != 3 {
		t.Fatalf("Expected 3 fields, got %d", len(embed.Fields))
	}

	if embed.Fields[0].Name != "Scan Results" {
		t.Errorf("Expected first field 'Scan Results', got %q", embed.Fields[0].Name)
	}
	if !strings.Contains(embed.Fields[0].Value, "Files Scanned:        120") {
		t.Errorf("Expected scan results to list files scanned, got %q", embed.Fields[0].Value)
	}
	if !strings.Contains(embed.Fields[1].Value, "Channels Reused:      1") {
		t.Errorf("Expected actions to list reused channels, got %q", embed.Fields[1].Value)
	}

	if embed.Fields[2].Name != "Output" {
		t.Errorf("Expected last field 'Output', got %q", embed.Fields[2].Name)
	}
	if !strings.Contains(embed.Fields[2].Value, "webhook_output/20240101_120000/webhook_mappings.json") {
		t.Errorf("Expected output field to point at the mappings file, got %q", embed.Fields[2].Value)
	}
	if !strings.Contains(embed.Fields[2].Value, "webhook_backups/20240101_120000/") {
		t.Errorf("Expected output field to point at the backup dir, got %q", embed.Fields[2].Value)
	}
}

func TestSummaryEmbedListsFailures(t *testing.T) {
	summary := &models.RunSummary{ReportDir: "webhook_output/x"}
	for i := 0; i < 8; i++ {
		summary.Failures = append(summary.Failures, models.Failure{
			Stage:    "provision",
			Resource: fmt.Sprintf("res%d", i),
			Reason:   "boom",
		})
	}

	embed := summaryEmbed(summary)

	var name, value string
	for _, f := range embed.Fields {
		if strings.HasPrefix(f.Name, "Failures") {
			name, value = f.Name, f.Value
		}
	}
	if value == "" {
		t.Fatal("Expected a failures field")
	}
	if name != "Failures (8)" {
		t.Errorf("Expected field name 'Failures (8)', got %q", name)
	}
	if !strings.Contains(value, "provision: res0 (boom)") {
		t.Errorf("Expected first failure line, got %q", value)
	}
	if !strings.Contains(value, "... and 3 more") {
		t.Errorf("Expected overflow line, got %q", value)
	}
	if strings.Contains(value, "res5") {
		t.Errorf("Expected failure list capped at %d entries, got %q", maxFailureLines, value)
	}
}

func TestStatusEmbed(t *testing.T) {
	cfg := &config.Config{}
	cfg.Discord.GuildID = "guild1"
	cfg.Scan.Root = "/srv/resources"

	t.Run("No Runs Yet", func(t *testing.T) {
		embed := statusEmbed(cfg, run.StateIdle, nil, "found (QB Logs)")

		if len(embed.Fields) != 3 {
			t.Fatalf("Expected 3 fields, got %d", len(embed.Fields))
		}
		if !strings.Contains(embed.Fields[0].Value, "Category:  found (QB Logs)") {
			t.Errorf("Expected configuration field to show category health, got %q", embed.Fields[0].Value)
		}
		if embed.Fields[1].Value != "idle" {
			t.Errorf("Expected state idle, got %q", embed.Fields[1].Value)
		}
		if embed.Fields[2].Value != "none recorded" {
			t.Errorf("Expected empty last run, got %q", embed.Fields[2].Value)
		}
	})

	t.Run("With Last Run", func(t *testing.T) {
		last := &models.RunSummary{
			ID:              "run_abc",
			State:           "done",
			FinishedAt:      1700000000,
			WebhooksCreated: 5,
			FilesUpdated:    4,
		}

		embed := statusEmbed(cfg, run.StateDone, last, "found")

		value := embed.Fields[2].Value
		if !strings.Contains(value, "run_abc") {
			t.Errorf("Expected last run field to name the run, got %q", value)
		}
		if !strings.Contains(value, "2023-11-14T22:13:20Z") {
			t.Errorf("Expected finished timestamp, got %q", value)
		}
		if !strings.Contains(value, "Webhooks:  5") {
			t.Errorf("Expected webhook count, got %q", value)
		}
	})
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 2000)
	if got := truncate(long, maxFieldLen); len(got) != maxFieldLen {
		t.Errorf("Expected %d chars, got %d", maxFieldLen, len(got))
	}
	if got := truncate("short", maxFieldLen); got != "short" {
		t.Errorf("Expected short string untouched, got %q", got)
	}
}
