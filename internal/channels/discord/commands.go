package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/haasonsaas/promptbot/internal/channels"
	"github.com/haasonsaas/promptbot/internal/commands"
)

// PublishCommands replaces the application's global command set with specs in
// a single bulk overwrite.
func (a *Adapter) PublishCommands(ctx context.Context, appID string, specs []commands.Spec) error {
	if appID == "" {
		return channels.ErrConfig("application id is required to publish commands", nil)
	}
	if err := a.ensureSession(); err != nil {
		return err
	}

	a.logger.Info("registering slash commands",
		"app_id", appID,
		"command_count", len(specs))

	registered, err := a.session.ApplicationCommandBulkOverwrite(appID, "", toApplicationCommands(specs), discordgo.WithContext(ctx))
	if err != nil {
		return wrapRESTError("failed to register slash commands", err)
	}

	a.logger.Info("slash commands registered", "count", len(registered))
	return nil
}

func toApplicationCommands(specs []commands.Spec) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(specs))
	for _, spec := range specs {
		cmd := &discordgo.ApplicationCommand{
			Name:        spec.Name,
			Description: spec.Description,
			Type:        discordgo.ChatApplicationCommand,
		}
		for _, opt := range spec.Options {
			option := &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionType(opt.Kind),
				Name:        opt.Name,
				Description: opt.Description,
				Required:    opt.Required,
			}
			for _, choice := range opt.Choices {
				option.Choices = append(option.Choices, &discordgo.ApplicationCommandOptionChoice{
					Name:  choice.Name,
					Value: choice.Value,
				})
			}
			cmd.Options = append(cmd.Options, option)
		}
		out = append(out, cmd)
	}
	return out
}
