package scan

import (
	"bytes"
	"regexp"
	"sort"
)

// Matches the canonical webhook URL shape, including the legacy discordapp.com
// host and the PTB client host. Anything that doesn't fit this shape is noise.
var webhookURLPattern = regexp.MustCompile(`(?i)https?://(?:discord(?:app)?\.com|ptb\.discord\.com)/api/webhooks/\d+/[\w-]+`)

// ExtractWebhookURLs returns the distinct webhook URLs found in content,
// sorted so downstream processing order is stable.
func ExtractWebhookURLs(content []byte) []string {
	matches := webhookURLPattern.FindAll(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var urls []string
	for _, m := range matches {
		url := string(m)
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// IsBinary reports whether content looks like a binary file. A NUL byte is
// proof enough; resource files that matter here are plain text.
func IsBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) != -1
}
