package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"rehook/internal/platform/models"
)

const (
	MappingsFileName = "webhook_mappings.json"
	GuideFileName    = "webhook_guide.txt"
)

// Document is the machine-readable report of one run.
type Document struct {
	RunID     string                 `json:"run_id"`
	Timestamp string                 `json:"timestamp"`
	ScanStats models.ScanStats       `json:"scan_statistics"`
	Channels  []models.ChannelRecord `json:"channels_created"`
	Mappings  map[string]string      `json:"webhook_mappings"`
	Resources []ResourceSection      `json:"resources"`
}

// ResourceSection groups a resource's webhooks with the files referencing them.
type ResourceSection struct {
	Name     string         `json:"name"`
	Channel  string         `json:"channel,omitempty"`
	Webhooks []WebhookEntry `json:"webhooks"`
}

type WebhookEntry struct {
	OldURL string   `json:"old_url"`
	NewURL string   `json:"new_url,omitempty"`
	Files  []string `json:"files,omitempty"`
}

// Build assembles the report document. Records that never got a replacement
// still appear, with new_url left empty, so partial runs stay reconstructable.
func Build(runID string, generatedAt time.Time, stats models.ScanStats, channels []models.ChannelRecord, records []models.WebhookRecord, locations map[string][]string) *Document {
	doc := &Document{
		RunID:     runID,
		Timestamp: generatedAt.Format(time.RFC3339),
		ScanStats: stats,
		Channels:  channels,
		Mappings:  make(map[string]string),
	}

	channelByResource := make(map[string]string)
	for _, ch := range channels {
		channelByResource[ch.Resource] = ch.Name
	}

	byResource := make(map[string][]WebhookEntry)
	for _, rec := range records {
		if rec.NewURL != "" {
			doc.Mappings[rec.OldURL] = rec.NewURL
		}
		byResource[rec.Resource] = append(byResource[rec.Resource], WebhookEntry{
			OldURL: rec.OldURL,
			NewURL: rec.NewURL,
			Files:  locations[rec.OldURL],
		})
	}

	names := make([]string, 0, len(byResource))
	for name := range byResource {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entries := byResource[name]
		sort.Slice(entries, func(i, j int) bool { return entries[i].OldURL < entries[j].OldURL })
		doc.Resources = append(doc.Resources, ResourceSection{
			Name:     name,
			Channel:  channelByResource[name],
			Webhooks: entries,
		})
	}

	return doc
}

// Writer persists reports under a run-stamped directory so no run ever
// overwrites another's output.
type Writer struct {
	outputRoot string
}

func NewWriter(outputRoot string) *Writer {
	return &Writer{outputRoot: outputRoot}
}

// Write stores the JSON mapping file and the text guide. Both are created
// exclusively; colliding with an existing report is an error, not an overwrite.
func (w *Writer) Write(stamp string, doc *Document) (jsonPath, guidePath string, err error) {
	dir := filepath.Join(w.outputRoot, stamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", "", err
	}

	jsonPath = filepath.Join(dir, MappingsFileName)
	if err := writeExclusive(jsonPath, data); err != nil {
		return "", "", err
	}

	guidePath = filepath.Join(dir, GuideFileName)
	if err := writeExclusive(guidePath, []byte(renderGuide(doc))); err != nil {
		return "", "", err
	}

	return jsonPath, guidePath, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const rule = "================================================================================"

// renderGuide lays out the human-readable companion to the JSON mapping.
func renderGuide(doc *Document) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString("WEBHOOK MAPPINGS\n")
	b.WriteString(rule + "\n\n")
	b.WriteString(fmt.Sprintf("Run:       %s\n", doc.RunID))
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", doc.Timestamp))

	b.WriteString("Scan Results:\n")
	b.WriteString(fmt.Sprintf("  Files Scanned:        %d\n", doc.ScanStats.FilesScanned))
	b.WriteString(fmt.Sprintf("  Files with Webhooks:  %d\n", doc.ScanStats.FilesWithWebhooks))
	b.WriteString(fmt.Sprintf("  Resources Found:      %d\n", doc.ScanStats.ResourcesFound))
	b.WriteString(fmt.Sprintf("  Total Webhooks:       %d\n\n", doc.ScanStats.TotalWebhooks))
	b.WriteString(rule + "\n")

	for _, res := range doc.Resources {
		b.WriteString("\n" + rule + "\n")
		b.WriteString(fmt.Sprintf("RESOURCE: %s\n", res.Name))
		if res.Channel != "" {
			b.WriteString(fmt.Sprintf("CHANNEL: #%s\n", res.Channel))
		}
		b.WriteString(fmt.Sprintf("WEBHOOKS: %d\n", len(res.Webhooks)))
		b.WriteString(rule + "\n\n")

		for i, wh := range res.Webhooks {
			b.WriteString(fmt.Sprintf("Webhook %d:\n", i+1))
			b.WriteString(fmt.Sprintf("  Old: %s\n", wh.OldURL))
			if wh.NewURL != "" {
				b.WriteString(fmt.Sprintf("  New: %s\n", wh.NewURL))
			} else {
				b.WriteString("  New: (not provisioned)\n")
			}
			if len(wh.Files) > 0 {
				b.WriteString(fmt.Sprintf("  Found in %d file(s):\n", len(wh.Files)))
				for j, file := range wh.Files {
					if j == 5 {
						b.WriteString(fmt.Sprintf("    ... and %d more\n", len(wh.Files)-5))
						break
					}
					b.WriteString(fmt.Sprintf("    - %s\n", file))
				}
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
