package models

// ResourceGroup is one resource and the distinct webhook URLs found under it.
// URLs are sorted so processing order is stable across runs.
type ResourceGroup struct {
	Name string   `json:"name"`
	URLs []string `json:"urls"`
}

// FileEntry is one scanned file that references at least one webhook URL.
type FileEntry struct {
	Path     string   `json:"path"`
	RelPath  string   `json:"rel_path"`
	Resource string   `json:"resource"`
	URLs     []string `json:"urls"`
}

// WebhookRecord maps an old webhook URL to its provisioned replacement.
// NewURL and ChannelID stay empty until provisioning succeeds.
type WebhookRecord struct {
	OldURL    string `json:"old_url"`
	NewURL    string `json:"new_url,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	Resource  string `json:"resource"`
}

// ChannelRecord is one log channel the provisioner ended up with, whether it
// created it or found it already in place.
type ChannelRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Resource     string `json:"resource"`
	WebhookCount int    `json:"webhook_count"`
	Reused       bool   `json:"reused,omitempty"`
}

type ScanStats struct {
	FilesScanned      int `json:"files_scanned"`
	FilesWithWebhooks int `json:"files_with_webhooks"`
	ResourcesFound    int `json:"resources_found"`
	TotalWebhooks     int `json:"total_webhooks"`
}

// Failure is one non-fatal problem collected during a run. Stage is "scan",
// "provision" or "rewrite"; Item names the file or URL involved when there is one.
type Failure struct {
	Stage    string `json:"stage"`
	Resource string `json:"resource,omitempty"`
	Item     string `json:"item,omitempty"`
	Reason   string `json:"reason"`
}

// RunSummary is the terminal record of one pipeline run.
type RunSummary struct {
	ID              string    `json:"id"`
	State           string    `json:"state"`
	StartedAt       int64     `json:"started_at"`
	FinishedAt      int64     `json:"finished_at"`
	Stats           ScanStats `json:"scan_statistics"`
	ChannelsCreated int       `json:"channels_created"`
	ChannelsReused  int       `json:"channels_reused"`
	WebhooksCreated int       `json:"webhooks_created"`
	FilesUpdated    int       `json:"files_updated"`
	Replacements    int       `json:"replacements"`
	FilesBackedUp   int       `json:"files_backed_up"`
	Failures        []Failure `json:"failures,omitempty"`
	ReportDir       string    `json:"report_dir,omitempty"`
	BackupDir       string    `json:"backup_dir,omitempty"`
}
