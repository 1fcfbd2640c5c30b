package provision

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	pkgErrors "rehook/internal/pkg/errors"
	"rehook/internal/platform/models"
)

// API is the slice of the Discord surface the provisioner needs.
type API interface {
	VerifyCategory() error
	EnsureChannel(name string) (id string, reused bool, err error)
	CreateWebhook(channelID, name string) (url string, err error)
}

// Client provisions one log channel per resource and one replacement webhook
// per old URL, pacing every API call.
type Client struct {
	api          API
	pacer        *Pacer
	channelDelay time.Duration
	webhookDelay time.Duration
}

func NewClient(api API, pacer *Pacer, channelDelay, webhookDelay time.Duration) *Client {
	return &Client{
		api:          api,
		pacer:        pacer,
		channelDelay: channelDelay,
		webhookDelay: webhookDelay,
	}
}

// Outcome is everything a provisioning pass produced.
type Outcome struct {
	Mappings map[string]string
	Records  []models.WebhookRecord
	Channels []models.ChannelRecord
	Failures []models.Failure
}

// Provision walks the resource groups in order. A failure on one resource
// skips that resource's remaining webhooks and moves on to the next; only an
// authentication failure or a missing category aborts the whole pass.
func (c *Client) Provision(groups []models.ResourceGroup, progress func(msg string)) (*Outcome, error) {
	out := &Outcome{Mappings: make(map[string]string)}

	if err := c.api.VerifyCategory(); err != nil {
		return out, err
	}

	total := len(groups)
	for idx, group := range groups {
		name := ChannelName(group.Name)

		var channelID string
		var reused bool
		err := c.pacer.Call(c.channelDelay, func() error {
			var err error
			channelID, reused, err = c.api.EnsureChannel(name)
			return err
		})
		if err != nil {
			if pkgErrors.IsFatal(err) {
				return out, err
			}
			log.Warn().Err(err).Str("resource", group.Name).Msg("channel creation failed, skipping resource")
			out.Failures = append(out.Failures, models.Failure{
				Stage: "provision", Resource: group.Name, Reason: err.Error(),
			})
			if progress != nil {
				progress(fmt.Sprintf("[%d/%d] Skipped %s: %v", idx+1, total, group.Name, err))
			}
			continue
		}

		out.Channels = append(out.Channels, models.ChannelRecord{
			ID:           channelID,
			Name:         name,
			Resource:     group.Name,
			WebhookCount: len(group.URLs),
			Reused:       reused,
		})
		if progress != nil {
			verb := "Created"
			if reused {
				verb = "Reusing"
			}
			progress(fmt.Sprintf("[%d/%d] %s #%s (%d webhooks)", idx+1, total, verb, name, len(group.URLs)))
		}

		for i, oldURL := range group.URLs {
			webhookName := WebhookName(group.Name, i+1, len(group.URLs))

			var newURL string
			err := c.pacer.Call(c.webhookDelay, func() error {
				var err error
				newURL, err = c.api.CreateWebhook(channelID, webhookName)
				return err
			})
			if err != nil {
				if pkgErrors.IsFatal(err) {
					return out, err
				}
				remaining := len(group.URLs) - i - 1
				reason := err.Error()
				if remaining > 0 {
					reason = fmt.Sprintf("%v (%d remaining webhooks skipped)", err, remaining)
				}
				log.Warn().Err(err).Str("resource", group.Name).Str("url", oldURL).
					Msg("webhook creation failed, skipping rest of resource")
				out.Failures = append(out.Failures, models.Failure{
					Stage: "provision", Resource: group.Name, Item: oldURL, Reason: reason,
				})
				if progress != nil {
					progress(fmt.Sprintf("[%d/%d] Skipped rest of %s: %v", idx+1, total, group.Name, err))
				}
				break
			}

			out.Mappings[oldURL] = newURL
			out.Records = append(out.Records, models.WebhookRecord{
				OldURL:    oldURL,
				NewURL:    newURL,
				ChannelID: channelID,
				Resource:  group.Name,
			})
		}
	}

	return out, nil
}
