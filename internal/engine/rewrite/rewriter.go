package rewrite

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"rehook/internal/platform/models"
)

// Rewriter replaces old webhook URLs with their provisioned successors,
// backing every file up before touching it.
type Rewriter struct {
	backupRoot string
}

func NewRewriter(backupRoot string) *Rewriter {
	return &Rewriter{backupRoot: backupRoot}
}

// Result is the tally of one rewrite pass.
type Result struct {
	FilesUpdated  int
	FilesBackedUp int
	Replacements  int
	Failures      []models.Failure
}

// Apply rewrites every file that still contains a mapped URL. The backup under
// <backupRoot>/<stamp>/<relpath> is written first; a file whose backup cannot
// be written is left untouched. Files with no remaining occurrences are
// skipped, which makes a second pass with the same mapping a no-op.
func (rw *Rewriter) Apply(stamp string, files []models.FileEntry, mappings map[string]string, progress func(msg string)) *Result {
	result := &Result{}
	if len(mappings) == 0 || len(files) == 0 {
		return result
	}

	backupDir := filepath.Join(rw.backupRoot, stamp)

	oldURLs := make([]string, 0, len(mappings))
	for old := range mappings {
		oldURLs = append(oldURLs, old)
	}
	sort.Strings(oldURLs)

	for idx, file := range files {
		if progress != nil && idx > 0 && idx%25 == 0 {
			progress(fmt.Sprintf("Progress: %d/%d files updated", idx, len(files)))
		}

		info, err := os.Stat(file.Path)
		if err != nil {
			result.fail(file, "stat failed: "+err.Error())
			continue
		}
		content, err := os.ReadFile(file.Path)
		if err != nil {
			result.fail(file, "read failed: "+err.Error())
			continue
		}

		replacements := 0
		updated := content
		for _, old := range oldURLs {
			count := bytes.Count(updated, []byte(old))
			if count == 0 {
				continue
			}
			updated = bytes.ReplaceAll(updated, []byte(old), []byte(mappings[old]))
			replacements += count
		}
		if replacements == 0 {
			continue
		}

		// Backup first, with the original bytes and mode. No backup, no rewrite.
		if err := writeBackup(backupDir, file.RelPath, content, info.Mode()); err != nil {
			log.Error().Err(err).Str("file", file.Path).Msg("backup failed, leaving file untouched")
			result.fail(file, "backup failed: "+err.Error())
			continue
		}
		result.FilesBackedUp++

		if err := os.WriteFile(file.Path, updated, info.Mode().Perm()); err != nil {
			log.Error().Err(err).Str("file", file.Path).Msg("write failed, backup kept")
			result.fail(file, "write failed: "+err.Error())
			continue
		}

		result.FilesUpdated++
		result.Replacements += replacements
	}

	return result
}

func (r *Result) fail(file models.FileEntry, reason string) {
	r.Failures = append(r.Failures, models.Failure{
		Stage:    "rewrite",
		Resource: file.Resource,
		Item:     file.RelPath,
		Reason:   reason,
	})
}

func writeBackup(backupDir, relPath string, content []byte, mode fs.FileMode) error {
	dest := filepath.Join(backupDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, content, mode.Perm())
}
