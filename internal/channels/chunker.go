package channels

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DiscordMessageLimit is the maximum length of a Discord message in characters.
const DiscordMessageLimit = 2000

const (
	fence      = "```"
	fenceClose = "\n" + fence
)

// SplitMessage splits text into pieces of at most limit characters.
//
// Breaks are placed at the last paragraph break, line break, sentence end or
// space inside the window, falling back to a hard cut. A code fence left open
// at the end of a piece is closed there and reopened, with its language tag,
// at the start of the next piece.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = DiscordMessageLimit
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	remaining := []rune(text)
	reopen := ""

	for len(remaining) > 0 {
		floor := 0
		if reopen != "" {
			remaining = append([]rune(reopen+"\n"), remaining...)
			floor = len(reopen) + 1
		}
		if len(remaining) <= limit {
			chunks = append(chunks, string(remaining))
			break
		}

		budget := limit - len(fenceClose)
		if budget < 1 {
			budget = limit
		}
		cut := breakPoint(string(remaining[:budget]), floor)

		piece := strings.TrimRightFunc(string(remaining[:cut]), unicode.IsSpace)
		remaining = []rune(strings.TrimLeftFunc(string(remaining[cut:]), unicode.IsSpace))

		reopen = ""
		if open, lang := openFence(piece); open && budget != limit {
			piece += fenceClose
			// Only reopen when the header leaves room for progress.
			if header := fence + lang; utf8.RuneCountInString(header)+1 < budget/2 {
				reopen = header
			}
		}
		if piece != "" {
			chunks = append(chunks, piece)
		}
	}

	return chunks
}

// breakPoint returns the rune offset at which to cut window. Boundaries at or
// before the byte offset floor are ignored.
func breakPoint(window string, floor int) int {
	runes := func(byteIdx int) int { return utf8.RuneCountInString(window[:byteIdx]) }

	if idx := strings.LastIndex(window, "\n\n"); idx > floor {
		return runes(idx + 1)
	}
	if idx := strings.LastIndex(window, "\n"); idx > floor {
		return runes(idx + 1)
	}

	best := -1
	for _, ending := range []string{". ", "! ", "? "} {
		if idx := strings.LastIndex(window, ending); idx > best {
			best = idx
		}
	}
	if best > floor {
		return runes(best + 1)
	}

	if idx := strings.LastIndexFunc(window, unicode.IsSpace); idx > floor {
		return runes(idx)
	}
	return utf8.RuneCountInString(window)
}

// openFence reports whether text ends inside a fenced code block and returns
// the language tag of that block.
func openFence(text string) (bool, string) {
	open := false
	lang := ""
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, fence) {
			continue
		}
		if open {
			open = false
			lang = ""
			continue
		}
		open = true
		lang = strings.TrimSpace(strings.TrimPrefix(trimmed, fence))
		// A fence opened and closed on one line does not stay open.
		if strings.HasSuffix(lang, fence) {
			open = false
			lang = ""
		}
	}
	return open, lang
}
