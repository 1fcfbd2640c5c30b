package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"rehook/internal/engine/run"
	"rehook/internal/platform/config"
	"rehook/internal/platform/discord"
)

// Bot exposes the pipeline through Discord slash commands.
type Bot struct {
	client *discord.Client
	runner *run.Runner
	cfg    *config.Config
}

func New(cfg *config.Config, client *discord.Client, runner *run.Runner) *Bot {
	return &Bot{
		client: client,
		runner: runner,
		cfg:    cfg,
	}
}

func (b *Bot) Start() error {
	session := b.client.Session()
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteractionCreate)

	return b.client.Open()
}

func (b *Bot) Stop() error {
	return b.client.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Info().
		Str("user", event.User.Username).
		Str("guild", b.cfg.Discord.GuildID).
		Msg("discord session ready")

	registered, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, b.cfg.Discord.GuildID, commands)
	if err != nil {
		log.Error().Err(err).Msg("failed to register slash commands")
		return
	}
	for _, cmd := range registered {
		log.Info().Str("command", cmd.Name).Msg("registered slash command")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case scanCommandName:
		b.handleScan(s, i)
	case statusCommandName:
		b.handleStatus(s, i)
	}
}
