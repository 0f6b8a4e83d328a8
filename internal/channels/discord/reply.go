package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/haasonsaas/promptbot/internal/channels"
	"github.com/haasonsaas/promptbot/pkg/models"
)

// Reply answers ev. Command events are answered through their interaction,
// editing the deferred response when Defer was called first. Message events
// get an inline reply to the triggering message. Text over the message limit
// is split and the remainder sent as follow-up messages.
func (a *Adapter) Reply(ctx context.Context, ev *models.Event, text string, opts models.ReplyOptions) error {
	if ev == nil {
		return channels.ErrInvalidInput("nil event", nil)
	}
	chunks := channels.SplitMessage(text, a.config.MessageLimit)
	if len(chunks) == 0 {
		return channels.ErrInvalidInput("reply text is empty", nil)
	}
	if a.session == nil {
		return channels.ErrInternal("session not initialized", nil)
	}

	var err error
	switch {
	case ev.IsCommand():
		err = a.respondInteraction(ctx, ev, chunks[0], opts)
	case ev.Kind == models.EventMessage:
		err = a.replyToMessage(ctx, ev, chunks[0])
	default:
		return channels.ErrInvalidInput("unsupported event kind", nil).WithContext("kind", ev.Kind)
	}
	if err != nil {
		return err
	}

	for _, chunk := range chunks[1:] {
		if _, err := a.session.ChannelMessageSend(ev.ChannelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return wrapRESTError("failed to send follow-up message", err)
		}
	}

	a.logger.Debug("reply sent",
		"event_id", ev.ID,
		"channel_id", ev.ChannelID,
		"chunks", len(chunks))
	return nil
}

// Defer acknowledges a command interaction so the reply may arrive after
// Discord's three second response window.
func (a *Adapter) Defer(ctx context.Context, ev *models.Event) error {
	i := interactionOf(ev)
	if i == nil {
		return channels.ErrInvalidInput("event has no interaction", nil)
	}
	if a.session == nil {
		return channels.ErrInternal("session not initialized", nil)
	}

	err := a.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return wrapRESTError("failed to defer interaction", err)
	}
	a.deferred.Store(i.ID, struct{}{})
	return nil
}

func (a *Adapter) respondInteraction(ctx context.Context, ev *models.Event, content string, opts models.ReplyOptions) error {
	i := interactionOf(ev)
	if i == nil {
		return channels.ErrInvalidInput("event has no interaction", nil)
	}

	if _, wasDeferred := a.deferred.LoadAndDelete(i.ID); wasDeferred {
		if _, err := a.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{
			Content: &content,
		}, discordgo.WithContext(ctx)); err != nil {
			return wrapRESTError("failed to edit deferred response", err)
		}
		return nil
	}

	data := &discordgo.InteractionResponseData{Content: content}
	if opts.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := a.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx)); err != nil {
		return wrapRESTError("failed to respond to interaction", err)
	}
	return nil
}

func (a *Adapter) replyToMessage(ctx context.Context, ev *models.Event, content string) error {
	ref := &discordgo.MessageReference{
		MessageID: ev.MessageID,
		ChannelID: ev.ChannelID,
		GuildID:   ev.GuildID,
	}
	if _, err := a.session.ChannelMessageSendReply(ev.ChannelID, content, ref, discordgo.WithContext(ctx)); err != nil {
		return wrapRESTError("failed to send reply", err)
	}
	return nil
}
