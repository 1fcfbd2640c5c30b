package provision

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Discord rejects channel names containing "discord" or "clyde".
	discordWord = regexp.MustCompile(`\bdiscord\b`)
	clydeWord   = regexp.MustCompile(`\bclyde\b`)

	whitespace  = regexp.MustCompile(`[\s_]+`)
	invalidChar = regexp.MustCompile(`[^a-z0-9\-]`)
	dashRuns    = regexp.MustCompile(`-+`)
)

// ChannelName builds the log channel name for a resource.
func ChannelName(resource string) string {
	return SanitizeChannelName(resource + "-logs")
}

// SanitizeChannelName normalizes a name to what Discord accepts: lowercase,
// dashes instead of whitespace and underscores, nothing outside [a-z0-9-],
// at most 100 characters.
func SanitizeChannelName(name string) string {
	name = strings.ToLower(name)

	name = discordWord.ReplaceAllString(name, "disc")
	name = clydeWord.ReplaceAllString(name, "assistant")

	name = whitespace.ReplaceAllString(name, "-")
	name = invalidChar.ReplaceAllString(name, "")
	name = dashRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")

	if name == "" {
		return "resource-logs"
	}
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

// WebhookName names the replacement webhook after its resource, numbering
// them only when the resource has more than one.
func WebhookName(resource string, index, total int) string {
	if total == 1 {
		return resource
	}
	return fmt.Sprintf("%s-%d", resource, index)
}
