package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haasonsaas/promptbot/internal/commands"
	"github.com/haasonsaas/promptbot/pkg/models"
)

// ErrInvalidArgument reports a command option outside its declared choices.
var ErrInvalidArgument = errors.New("invalid argument")

var styleText = map[string]string{
	commands.StyleRealistic: "photo-realistic",
	commands.StyleDrawn:     "hand-drawn style",
	commands.StyleAnime:     "anime style",
	commands.StyleToony:     "cartoon style",
}

var sizeText = map[string]string{
	commands.ScaleThumbnail:   "256x256",
	commands.ScaleSquare:      "512x512",
	commands.ScalePhoneScreen: "1024x1792",
}

// StyleText maps an imagine style choice to the phrase appended to the prompt.
func StyleText(style string) (string, bool) {
	s, ok := styleText[style]
	return s, ok
}

// SizeText maps an imagine scale choice to an image size.
func SizeText(scale string) (string, bool) {
	s, ok := sizeText[scale]
	return s, ok
}

// ImageRequest is what the imagine command asks the AI gateway for.
type ImageRequest struct {
	Prompt string
	Size   string
	N      int
}

// ChatRequest carries the raw text of a message the bot answers.
type ChatRequest struct {
	Content string
}

var imagineSpec, _ = commands.Builtin(commands.CommandImagine)

// choice returns the trimmed value of a closed-choice option after checking it
// against the imagine command's declared choices.
func choice(ev *models.Event, name string) (string, error) {
	value, _ := ev.Option(name)
	value = strings.TrimSpace(value)

	opt, ok := imagineSpec.Option(name)
	if !ok || !opt.Allows(value) {
		return "", fmt.Errorf("%w: %s %q is not one of %v", ErrInvalidArgument, name, value, opt.Values())
	}
	return value, nil
}

// NewImageRequest builds the image request from an imagine command's options.
// The prompt is forwarded as given; only a blank prompt is rejected.
func NewImageRequest(ev *models.Event) (ImageRequest, error) {
	prompt, _ := ev.Option(commands.OptionPrompt)
	if strings.TrimSpace(prompt) == "" {
		return ImageRequest{}, fmt.Errorf("%w: %s is required", ErrInvalidArgument, commands.OptionPrompt)
	}

	style, err := choice(ev, commands.OptionStyle)
	if err != nil {
		return ImageRequest{}, err
	}
	styleStr, ok := StyleText(style)
	if !ok {
		return ImageRequest{}, fmt.Errorf("%w: no text for %s %q", ErrInvalidArgument, commands.OptionStyle, style)
	}

	scale, err := choice(ev, commands.OptionScale)
	if err != nil {
		return ImageRequest{}, err
	}
	size, ok := SizeText(scale)
	if !ok {
		return ImageRequest{}, fmt.Errorf("%w: no size for %s %q", ErrInvalidArgument, commands.OptionScale, scale)
	}

	return ImageRequest{
		Prompt: fmt.Sprintf("%s in %s", prompt, styleStr),
		Size:   size,
		N:      1,
	}, nil
}
