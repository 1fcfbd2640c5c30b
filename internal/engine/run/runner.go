package run

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"rehook/internal/engine/provision"
	"rehook/internal/engine/report"
	"rehook/internal/engine/rewrite"
	"rehook/internal/engine/scan"
	pkgErrors "rehook/internal/pkg/errors"
	"rehook/internal/platform/config"
	"rehook/internal/platform/models"
)

// Reporter receives human-readable progress while a run executes.
type Reporter interface {
	Progress(msg string)
}

// Store persists run summaries and mappings. Store failures only cost history,
// never a run, so the runner logs them and moves on.
type Store interface {
	Save(run *models.RunSummary) error
	SaveMappings(runID string, records []models.WebhookRecord) error
	Last() (*models.RunSummary, error)
}

const stampLayout = "20060102_150405"

// Runner drives one scan, provision, rewrite, report pass at a time.
type Runner struct {
	cfg   *config.Config
	api   provision.API
	store Store

	mu     sync.Mutex
	state  State
	active bool
	last   *models.RunSummary
}

func NewRunner(cfg *config.Config, api provision.API, store Store) *Runner {
	return &Runner{
		cfg:   cfg,
		api:   api,
		store: store,
		state: StateIdle,
	}
}

// State returns the pipeline's current position.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Status returns the current state and the most recent run summary. After a
// restart the summary comes from the store.
func (r *Runner) Status() (State, *models.RunSummary) {
	r.mu.Lock()
	state, last := r.state, r.last
	r.mu.Unlock()

	if last == nil && r.store != nil {
		stored, err := r.store.Last()
		if err != nil {
			log.Error().Err(err).Msg("failed to load last run from store")
		} else {
			last = stored
		}
	}
	return state, last
}

// Run executes one full pass. Runs are single-flight: a trigger while another
// run is active returns ErrRunActive without touching anything.
func (r *Runner) Run(rep Reporter) (*models.RunSummary, error) {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return nil, pkgErrors.ErrRunActive
	}
	r.active = true
	r.state = StateScanning
	r.mu.Unlock()

	summary, records, err := r.execute(rep)

	r.mu.Lock()
	r.active = false
	if err != nil {
		r.state = StateFailed
	} else {
		r.state = StateDone
	}
	r.last = summary
	r.mu.Unlock()

	if r.store != nil && summary != nil {
		if serr := r.store.Save(summary); serr != nil {
			log.Error().Err(serr).Str("run", summary.ID).Msg("failed to persist run summary")
		}
		if serr := r.store.SaveMappings(summary.ID, records); serr != nil {
			log.Error().Err(serr).Str("run", summary.ID).Msg("failed to persist run mappings")
		}
	}

	return summary, err
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Runner) execute(rep Reporter) (*models.RunSummary, []models.WebhookRecord, error) {
	started := time.Now()
	stamp := started.Format(stampLayout)
	summary := &models.RunSummary{
		ID:        "run_" + uuid.New().String(),
		State:     string(StateFailed),
		StartedAt: started.Unix(),
	}
	finish := func() {
		summary.FinishedAt = time.Now().Unix()
	}

	log.Info().Str("run", summary.ID).Str("root", r.cfg.Scan.Root).Msg("run started")
	progress(rep, "STEP 1/4: Scanning resources")

	scanner := scan.NewScanner(r.cfg.Scan.Root, r.cfg.Scan.Extensions, r.cfg.Scan.ExcludeDirs)
	scanned, err := scanner.Scan(func(msg string) { progress(rep, msg) })
	if err != nil {
		finish()
		summary.Failures = append(summary.Failures, models.Failure{Stage: "scan", Reason: err.Error()})
		return summary, nil, err
	}
	summary.Stats = scanned.Stats
	summary.Failures = append(summary.Failures, scanned.Warnings...)

	r.setState(StateMapped)
	progress(rep, fmt.Sprintf("Scan complete: %d files scanned, %d with webhooks, %d resources, %d webhooks",
		scanned.Stats.FilesScanned, scanned.Stats.FilesWithWebhooks,
		scanned.Stats.ResourcesFound, scanned.Stats.TotalWebhooks))

	outcome := &provision.Outcome{Mappings: make(map[string]string)}
	if scanned.Stats.TotalWebhooks == 0 {
		progress(rep, "No webhooks found, nothing to provision")
	} else {
		r.setState(StateProvisioning)
		progress(rep, fmt.Sprintf("STEP 2/4: Creating %d channels (1 per resource)", len(scanned.Resources)))

		client := provision.NewClient(r.api, provision.NewPacer(r.cfg.Pacing.MaxRetries),
			r.cfg.Pacing.ChannelDelay, r.cfg.Pacing.WebhookDelay)
		outcome, err = client.Provision(scanned.Resources, func(msg string) { progress(rep, msg) })
		r.applyOutcome(summary, outcome)
		if err != nil {
			finish()
			summary.Failures = append(summary.Failures, models.Failure{Stage: "provision", Reason: err.Error()})
			return summary, outcome.Records, err
		}

		r.setState(StateRewriting)
		progress(rep, fmt.Sprintf("STEP 3/4: Updating %d files", len(scanned.Files)))

		rewriter := rewrite.NewRewriter(r.cfg.Output.BackupDir)
		rewritten := rewriter.Apply(stamp, scanned.Files, outcome.Mappings, func(msg string) { progress(rep, msg) })
		summary.FilesUpdated = rewritten.FilesUpdated
		summary.FilesBackedUp = rewritten.FilesBackedUp
		summary.Replacements = rewritten.Replacements
		summary.Failures = append(summary.Failures, rewritten.Failures...)
		if rewritten.FilesBackedUp > 0 {
			summary.BackupDir = filepath.Join(r.cfg.Output.BackupDir, stamp)
		}
		progress(rep, fmt.Sprintf("Updated %d files (%d replacements, %d backed up)",
			rewritten.FilesUpdated, rewritten.Replacements, rewritten.FilesBackedUp))
	}

	r.setState(StateReporting)
	progress(rep, "STEP 4/4: Saving results")

	writer := report.NewWriter(r.cfg.Output.ReportDir)
	doc := report.Build(summary.ID, started, scanned.Stats, outcome.Channels, outcome.Records, scanned.Locations)
	if _, _, err := writer.Write(stamp, doc); err != nil {
		finish()
		summary.Failures = append(summary.Failures, models.Failure{Stage: "report", Reason: err.Error()})
		return summary, outcome.Records, err
	}
	summary.ReportDir = filepath.Join(r.cfg.Output.ReportDir, stamp)
	progress(rep, fmt.Sprintf("Results saved to %s", summary.ReportDir))

	finish()
	summary.State = string(StateDone)
	log.Info().Str("run", summary.ID).
		Int("channels", summary.ChannelsCreated).
		Int("webhooks", summary.WebhooksCreated).
		Int("files_updated", summary.FilesUpdated).
		Int("failures", len(summary.Failures)).
		Msg("run finished")
	progress(rep, fmt.Sprintf("Done: %d channels, %d webhooks, %d files updated, %d failures",
		summary.ChannelsCreated+summary.ChannelsReused, summary.WebhooksCreated,
		summary.FilesUpdated, len(summary.Failures)))

	return summary, outcome.Records, nil
}

func (r *Runner) applyOutcome(summary *models.RunSummary, outcome *provision.Outcome) {
	for _, ch := range outcome.Channels {
		if ch.Reused {
			summary.ChannelsReused++
		} else {
			summary.ChannelsCreated++
		}
	}
	summary.WebhooksCreated = len(outcome.Records)
	summary.Failures = append(summary.Failures, outcome.Failures...)
}

func progress(rep Reporter, msg string) {
	if rep != nil {
		rep.Progress(msg)
	}
}
