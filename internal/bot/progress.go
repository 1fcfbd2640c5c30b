package bot

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"rehook/internal/engine/report"
	"rehook/internal/engine/run"
	"rehook/internal/platform/config"
	"rehook/internal/platform/models"
)

const (
	colorGreen = 0x57F287
	colorBlue  = 0x5865F2

	maxFieldLen     = 1024
	maxFailureLines = 5
)

// followupReporter streams pipeline progress into a deferred interaction as
// followup messages. Losing a progress line must not stop a run, so send
// failures are logged and swallowed.
type followupReporter struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func newFollowupReporter(s *discordgo.Session, i *discordgo.Interaction) *followupReporter {
	return &followupReporter{session: s, interaction: i}
}

func (r *followupReporter) Progress(msg string) {
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: msg,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to send progress followup")
	}
}

func (r *followupReporter) Embed(embed *discordgo.MessageEmbed) {
	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to send summary followup")
	}
}

func summaryEmbed(summary *models.RunSummary) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "Webhook Setup Complete",
		Color:     colorGreen,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Scan Results",
				Value: fmt.Sprintf("```\nFiles Scanned:        %d\nFiles with Webhooks:  %d\nResources Found:      %d\nTotal Webhooks:       %d\n```",
					summary.Stats.FilesScanned, summary.Stats.FilesWithWebhooks,
					summary.Stats.ResourcesFound, summary.Stats.TotalWebhooks),
			},
			{
				Name: "Actions Taken",
				Value: fmt.Sprintf("```\nChannels Created:     %d\nChannels Reused:      %d\nNew Webhooks:         %d\nFiles Updated:        %d\nReplacements:         %d\n```",
					summary.ChannelsCreated, summary.ChannelsReused, summary.WebhooksCreated,
					summary.FilesUpdated, summary.Replacements),
			},
		},
	}

	if n := len(summary.Failures); n > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Failures (%d)", n),
			Value: truncate(failureLines(summary.Failures), maxFieldLen),
		})
	}

	if summary.ReportDir != "" {
		output := fmt.Sprintf("• `%s`\n• `%s`",
			filepath.Join(summary.ReportDir, report.MappingsFileName),
			filepath.Join(summary.ReportDir, report.GuideFileName))
		if summary.BackupDir != "" {
			output += fmt.Sprintf("\n• `%s/`", summary.BackupDir)
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Output",
			Value: output,
		})
	}

	return embed
}

func statusEmbed(cfg *config.Config, state run.State, last *models.RunSummary, category string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "Webhook Bot Status",
		Color:     colorBlue,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "Configuration",
				Value: fmt.Sprintf("```\nGuild:     %s\nCategory:  %s\nScan Root: %s\n```",
					cfg.Discord.GuildID, category, cfg.Scan.Root),
			},
			{
				Name:   "State",
				Value:  string(state),
				Inline: true,
			},
		},
	}

	if last == nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Last Run",
			Value: "none recorded",
		})
		return embed
	}

	finished := "still running"
	if last.FinishedAt > 0 {
		finished = time.Unix(last.FinishedAt, 0).UTC().Format(time.RFC3339)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Last Run",
		Value: fmt.Sprintf("```\nID:        %s\nState:     %s\nFinished:  %s\nWebhooks:  %d\nFiles:     %d\nFailures:  %d\n```",
			last.ID, last.State, finished,
			last.WebhooksCreated, last.FilesUpdated, len(last.Failures)),
	})

	return embed
}

func failureLines(failures []models.Failure) string {
	lines := make([]string, 0, maxFailureLines+1)
	for idx, f := range failures {
		if idx == maxFailureLines {
			lines = append(lines, fmt.Sprintf("... and %d more", len(failures)-maxFailureLines))
			break
		}
		item := f.Item
		if item == "" {
			item = f.Resource
		}
		if item != "" {
			lines = append(lines, fmt.Sprintf("%s: %s (%s)", f.Stage, item, f.Reason))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s", f.Stage, f.Reason))
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
