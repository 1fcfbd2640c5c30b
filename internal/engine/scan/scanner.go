package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	pkgErrors "rehook/internal/pkg/errors"
	"rehook/internal/platform/models"
)

// ResourceName derives the owning resource from a path relative to the scan
// root. Server trees nest resources under a "resources" directory, often with
// bracketed grouping folders like [qb], so the name is the segment after
// "resources" when present, otherwise the first segment below any bracketed
// group at the top.
func ResourceName(relPath string) string {
	rel := filepath.ToSlash(relPath)
	if rel == "" || rel == "." {
		return "unknown"
	}
	parts := strings.Split(rel, "/")

	var name string
	for i, part := range parts {
		if part == "resources" && i+1 < len(parts) {
			name = parts[i+1]
			break
		}
	}

	if name == "" {
		first := parts[0]
		if strings.HasPrefix(first, "[") && strings.HasSuffix(first, "]") && len(parts) >= 2 {
			name = parts[1]
		} else {
			name = first
		}
	}

	name = strings.TrimSpace(strings.Trim(name, "[]"))
	if name == "" {
		return "unknown"
	}
	return name
}

// Scanner runs a full pass over the resource tree: locate candidate files,
// extract webhook URLs and group them by resource.
type Scanner struct {
	root    string
	locator *Locator
}

func NewScanner(root string, extensions, skipDirs []string) *Scanner {
	return &Scanner{
		root:    root,
		locator: NewLocator(extensions, skipDirs),
	}
}

// Result is everything a scan pass discovered.
type Result struct {
	Root      string
	Resources []models.ResourceGroup
	Files     []models.FileEntry
	Locations map[string][]string
	Stats     models.ScanStats
	Warnings  []models.Failure
}

// Scan walks the tree once. Unreadable and binary files become warnings, not
// errors; only a missing or non-directory root aborts the pass.
func (s *Scanner) Scan(progress func(msg string)) (*Result, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, &pkgErrors.ConfigError{Problems: []string{fmt.Sprintf("scan root does not exist: %s", s.root)}}
	}
	if !info.IsDir() {
		return nil, &pkgErrors.ConfigError{Problems: []string{fmt.Sprintf("scan root is not a directory: %s", s.root)}}
	}

	result := &Result{
		Root:      s.root,
		Locations: make(map[string][]string),
	}
	byResource := make(map[string]map[string]struct{})
	locations := make(map[string]map[string]struct{})

	walkErr := s.locator.Walk(s.root, func(path string) error {
		result.Stats.FilesScanned++
		if progress != nil && result.Stats.FilesScanned%500 == 0 {
			progress(fmt.Sprintf("Progress: %d files scanned (%d resources, %d webhooks so far)",
				result.Stats.FilesScanned, len(byResource), len(locations)))
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("failed to read file")
			result.Warnings = append(result.Warnings, models.Failure{
				Stage: "scan", Item: path, Reason: "unreadable: " + err.Error(),
			})
			return nil
		}
		if IsBinary(content) {
			result.Warnings = append(result.Warnings, models.Failure{
				Stage: "scan", Item: path, Reason: "binary content, skipped",
			})
			return nil
		}

		urls := ExtractWebhookURLs(content)
		if len(urls) == 0 {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			rel = path
		}
		resource := ResourceName(rel)

		result.Stats.FilesWithWebhooks++
		result.Files = append(result.Files, models.FileEntry{
			Path:     path,
			RelPath:  filepath.ToSlash(rel),
			Resource: resource,
			URLs:     urls,
		})

		if byResource[resource] == nil {
			byResource[resource] = make(map[string]struct{})
		}
		for _, url := range urls {
			byResource[resource][url] = struct{}{}
			if locations[url] == nil {
				locations[url] = make(map[string]struct{})
			}
			locations[url][filepath.ToSlash(rel)] = struct{}{}
		}
		return nil
	}, func(path string, err error) {
		log.Warn().Err(err).Str("path", path).Msg("skipping unreadable directory")
		result.Warnings = append(result.Warnings, models.Failure{
			Stage: "scan", Item: path, Reason: "unreadable: " + err.Error(),
		})
	})
	if walkErr != nil {
		return nil, walkErr
	}

	result.Resources, result.Warnings = groupByResource(byResource, result.Warnings)
	for url, files := range locations {
		list := make([]string, 0, len(files))
		for f := range files {
			list = append(list, f)
		}
		sort.Strings(list)
		result.Locations[url] = list
	}

	result.Stats.ResourcesFound = len(byResource)
	result.Stats.TotalWebhooks = len(locations)

	return result, nil
}

// groupByResource turns the per-resource URL sets into sorted groups. A URL
// referenced by more than one resource is provisioned once: the first resource
// in name order owns it and the rest get a warning.
func groupByResource(byResource map[string]map[string]struct{}, warnings []models.Failure) ([]models.ResourceGroup, []models.Failure) {
	names := make([]string, 0, len(byResource))
	for name := range byResource {
		names = append(names, name)
	}
	sort.Strings(names)

	claimed := make(map[string]string)
	var groups []models.ResourceGroup
	for _, name := range names {
		var urls []string
		for url := range byResource[name] {
			if owner, ok := claimed[url]; ok {
				log.Warn().Str("resource", name).Str("owner", owner).Str("url", url).
					Msg("webhook URL shared across resources, keeping first owner")
				warnings = append(warnings, models.Failure{
					Stage: "scan", Resource: name, Item: url,
					Reason: fmt.Sprintf("URL also referenced by %s; provisioned once under %s", owner, owner),
				})
				continue
			}
			claimed[url] = name
			urls = append(urls, url)
		}
		if len(urls) == 0 {
			continue
		}
		sort.Strings(urls)
		groups = append(groups, models.ResourceGroup{Name: name, URLs: urls})
	}
	return groups, warnings
}
