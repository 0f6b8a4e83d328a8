// Package dispatch turns inbound events into mode changes, AI calls and replies.
package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haasonsaas/promptbot/internal/commands"
	"github.com/haasonsaas/promptbot/pkg/models"
)

// Fixed reply texts.
const (
	ChatActivatedText   = "Chat mode activated! The bot will reply to every message."
	ChatDeactivatedText = "Chat mode deactivated! The bot will stop replying to every message."
	UnknownCommandText  = "Unknown command."
	ImageReplyPrefix    = "Here is your image: "
	ImageFailureText    = "Failed to generate the image. Please try again later."
	ChatFailureText     = "Sorry, I encountered an error while processing your message."
)

// ActionKind is the effect Decide selects for an event.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionReply
	ActionImagine
	ActionChat
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionReply:
		return "reply"
	case ActionImagine:
		return "imagine"
	case ActionChat:
		return "chat"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action describes what the dispatcher should do for one event.
type Action struct {
	Kind ActionKind

	// Text is the reply for ActionReply.
	Text string

	// Ephemeral marks the reply as visible only to the invoker.
	Ephemeral bool

	// Image is set for ActionImagine.
	Image *ImageRequest

	// Chat is set for ActionChat.
	Chat *ChatRequest

	// SetsMode marks a chat-mode toggle; the mode returned by Decide must be
	// stored even if it equals the value Decide was given.
	SetsMode bool
}

// Decide selects the action for ev given the current chat mode and returns
// the mode value to store afterwards. It performs no I/O.
//
// An imagine command with an invalid option yields the image failure reply
// together with an error wrapping ErrInvalidArgument.
func Decide(ev *models.Event, chatMode bool) (Action, bool, error) {
	if ev == nil {
		return Action{Kind: ActionNone}, chatMode, errors.New("nil event")
	}

	switch ev.Kind {
	case models.EventCommand:
		return decideCommand(ev, chatMode)
	case models.EventMessage:
		return decideMessage(ev, chatMode), chatMode, nil
	default:
		return Action{Kind: ActionNone}, chatMode, fmt.Errorf("unsupported event kind %q", ev.Kind)
	}
}

func decideCommand(ev *models.Event, chatMode bool) (Action, bool, error) {
	switch ev.Command {
	case commands.CommandStartChat:
		return Action{Kind: ActionReply, Text: ChatActivatedText, SetsMode: true}, true, nil
	case commands.CommandDeactivate:
		return Action{Kind: ActionReply, Text: ChatDeactivatedText, SetsMode: true}, false, nil
	case commands.CommandImagine:
		req, err := NewImageRequest(ev)
		if err != nil {
			return Action{Kind: ActionReply, Text: ImageFailureText}, chatMode, err
		}
		return Action{Kind: ActionImagine, Image: &req}, chatMode, nil
	default:
		return Action{Kind: ActionReply, Text: UnknownCommandText, Ephemeral: true}, chatMode, nil
	}
}

func decideMessage(ev *models.Event, chatMode bool) Action {
	if ev.Author.Bot {
		return Action{Kind: ActionNone}
	}
	if !chatMode && !ev.MentionsSelf {
		return Action{Kind: ActionNone}
	}
	if strings.TrimSpace(ev.Content) == "" {
		return Action{Kind: ActionNone}
	}
	return Action{Kind: ActionChat, Chat: &ChatRequest{Content: ev.Content}}
}
