package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/haasonsaas/promptbot/internal/observability"
	"github.com/haasonsaas/promptbot/pkg/models"
)

const metaInteraction = "discord_interaction"

// convertInteraction turns an application command interaction into an event.
// Other interaction types return nil.
func convertInteraction(i *discordgo.InteractionCreate) *models.Event {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return nil
	}
	data := i.ApplicationCommandData()

	options := make(map[string]string, len(data.Options))
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			options[opt.Name] = opt.StringValue()
			continue
		}
		options[opt.Name] = fmt.Sprint(opt.Value)
	}

	return &models.Event{
		ID:         observability.NewRequestID(),
		Kind:       models.EventCommand,
		Channel:    models.ChannelDiscord,
		ChannelID:  i.ChannelID,
		GuildID:    i.GuildID,
		Author:     convertUser(interactionUser(i.Interaction)),
		Command:    data.Name,
		Options:    options,
		Metadata:   map[string]any{metaInteraction: i.Interaction},
		ReceivedAt: time.Now(),
	}
}

// convertMessage turns a gateway message into an event. selfID is the bot's
// user ID, used to detect mentions.
func convertMessage(m *discordgo.Message, selfID string) *models.Event {
	if m == nil || m.Author == nil {
		return nil
	}

	ev := &models.Event{
		ID:           observability.NewRequestID(),
		Kind:         models.EventMessage,
		Channel:      models.ChannelDiscord,
		ChannelID:    m.ChannelID,
		GuildID:      m.GuildID,
		MessageID:    m.ID,
		Author:       convertUser(m.Author),
		Content:      m.Content,
		MentionsSelf: mentionsUser(m, selfID),
		ReceivedAt:   time.Now(),
	}
	if !m.Timestamp.IsZero() {
		ev.ReceivedAt = m.Timestamp
	}
	return ev
}

// mentionsUser reports whether m mentions userID directly or replies to one of
// its messages. @everyone and role mentions do not count.
func mentionsUser(m *discordgo.Message, userID string) bool {
	if userID == "" {
		return false
	}
	for _, u := range m.Mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	if ref := m.ReferencedMessage; ref != nil && ref.Author != nil && ref.Author.ID == userID {
		return true
	}
	return false
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func convertUser(u *discordgo.User) models.Author {
	if u == nil {
		return models.Author{}
	}
	return models.Author{ID: u.ID, Username: u.Username, Bot: u.Bot}
}

func interactionOf(ev *models.Event) *discordgo.Interaction {
	if ev == nil || ev.Metadata == nil {
		return nil
	}
	i, _ := ev.Metadata[metaInteraction].(*discordgo.Interaction)
	return i
}
