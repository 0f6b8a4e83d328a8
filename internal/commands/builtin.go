package commands

import "log/slog"

// Builtins returns the command set in registration order.
func Builtins() []Spec {
	return []Spec{
		{
			Name:        CommandStartChat,
			Description: "Bot will start replying to every message",
		},
		{
			Name:        CommandDeactivate,
			Description: "Stop the bot from replying to every message",
		},
		{
			Name:        CommandImagine,
			Description: "Generate an image from a prompt",
			Options: []Option{
				{
					Name:        OptionPrompt,
					Description: "Describe the image you want",
					Kind:        OptionKindString,
					Required:    true,
				},
				{
					Name:        OptionStyle,
					Description: "Choose a style for the image",
					Kind:        OptionKindString,
					Required:    true,
					Choices: []Choice{
						{Name: "Realistic", Value: StyleRealistic},
						{Name: "Drawn", Value: StyleDrawn},
						{Name: "Anime", Value: StyleAnime},
						{Name: "Toony", Value: StyleToony},
					},
				},
				{
					Name:        OptionScale,
					Description: "Choose a scale for the image",
					Kind:        OptionKindString,
					Required:    true,
					Choices: []Choice{
						{Name: "Thumbnail (256x256)", Value: ScaleThumbnail},
						{Name: "Square (512x512)", Value: ScaleSquare},
						{Name: "Phone Screen (1024x1792)", Value: ScalePhoneScreen},
					},
				},
			},
		},
	}
}

// Builtin returns the builtin command named name.
func Builtin(name string) (Spec, bool) {
	for _, spec := range Builtins() {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

// NewBuiltinRegistry returns a registry preloaded with Builtins.
func NewBuiltinRegistry(logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(logger)
	for _, spec := range Builtins() {
		if err := r.Register(spec); err != nil {
			return nil, err
		}
	}
	return r, nil
}
