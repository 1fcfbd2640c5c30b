package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	pkgErrors "rehook/internal/pkg/errors"
	"rehook/internal/platform/config"
)

// Client wraps a discordgo session with the narrow surface the pipeline needs.
// One client serves both the gateway (slash commands) and the REST calls the
// provisioner makes.
type Client struct {
	session    *discordgo.Session
	guildID    string
	categoryID string
}

func New(cfg config.DiscordConfig) (*Client, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds
	// The pipeline paces its own calls and handles cooldowns; let 429s surface
	// instead of blocking inside the library.
	session.ShouldRetryOnRateLimit = false

	return &Client{
		session:    session,
		guildID:    cfg.GuildID,
		categoryID: cfg.CategoryID,
	}, nil
}

func (c *Client) Session() *discordgo.Session { return c.session }

func (c *Client) GuildID() string { return c.guildID }

func (c *Client) Open() error {
	return c.session.Open()
}

func (c *Client) Close() error {
	return c.session.Close()
}

// VerifyCategory checks that the configured parent channel exists and really
// is a category.
func (c *Client) VerifyCategory() error {
	channel, err := c.session.Channel(c.categoryID)
	if err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
			return pkgErrors.ErrCategoryNotFound
		}
		return wrapErr(err)
	}
	if channel.Type != discordgo.ChannelTypeGuildCategory {
		return pkgErrors.ErrCategoryNotFound
	}
	return nil
}

// CategoryName returns the configured category's name, for status display.
func (c *Client) CategoryName() (string, error) {
	channel, err := c.session.Channel(c.categoryID)
	if err != nil {
		return "", wrapErr(err)
	}
	return channel.Name, nil
}

// EnsureChannel returns an existing text channel with the given name under the
// category, or creates a new one there.
func (c *Client) EnsureChannel(name string) (string, bool, error) {
	channels, err := c.session.GuildChannels(c.guildID)
	if err != nil {
		return "", false, wrapErr(err)
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name && ch.ParentID == c.categoryID {
			return ch.ID, true, nil
		}
	}

	channel, err := c.session.GuildChannelCreateComplex(c.guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: c.categoryID,
	})
	if err != nil {
		return "", false, wrapErr(err)
	}
	return channel.ID, false, nil
}

// CreateWebhook creates a webhook on the channel and returns its URL.
func (c *Client) CreateWebhook(channelID, name string) (string, error) {
	webhook, err := c.session.WebhookCreate(channelID, name, "")
	if err != nil {
		return "", wrapErr(err)
	}
	return fmt.Sprintf("https://discord.com/api/webhooks/%s/%s", webhook.ID, webhook.Token), nil
}

// wrapErr translates discordgo errors into the pipeline's taxonomy: rate
// limits become retryable signals, auth failures become fatal.
func wrapErr(err error) error {
	var rl *discordgo.RateLimitError
	if errors.As(err, &rl) {
		return &pkgErrors.RateLimitError{RetryAfter: rl.RetryAfter}
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusUnauthorized {
		return pkgErrors.ErrUnauthorized
	}
	return err
}
