package bot

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	pkgErrors "rehook/internal/pkg/errors"
)

const (
	scanCommandName   = "scan-webhooks"
	statusCommandName = "webhook-status"
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        scanCommandName,
		Description: "Scan resources, create log channels and webhooks, update files",
	},
	{
		Name:        statusCommandName,
		Description: "Show bot status and the last run",
	},
}

func (b *Bot) handleScan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		log.Error().Err(err).Msg("failed to defer scan interaction")
		return
	}

	// A run takes minutes; don't hold the event handler.
	go b.runScan(s, i)
}

func (b *Bot) runScan(s *discordgo.Session, i *discordgo.InteractionCreate) {
	reporter := newFollowupReporter(s, i.Interaction)

	summary, err := b.runner.Run(reporter)
	if errors.Is(err, pkgErrors.ErrRunActive) {
		reporter.Progress("A run is already in progress, try again once it finishes")
		return
	}
	if err != nil {
		reporter.Progress(fmt.Sprintf("Run failed: %v", err))
		return
	}

	reporter.Embed(summaryEmbed(summary))
}

func (b *Bot) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	state, last := b.runner.Status()

	category := "not found"
	if err := b.client.VerifyCategory(); err == nil {
		category = "found"
		if name, err := b.client.CategoryName(); err == nil {
			category = fmt.Sprintf("found (%s)", name)
		}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{statusEmbed(b.cfg, state, last, category)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to respond to status interaction")
	}
}
