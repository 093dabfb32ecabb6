package report

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlight colors a source excerpt by the lexer chosen from filename. The
// text is returned unchanged when no lexer matches; a renderer without colors
// yields the plain text.
func Highlight(r *lipgloss.Renderer, filename, text string) string {
	lexer := lexerForFile(filename)
	if lexer == nil {
		return text
	}
	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	var b strings.Builder
	for _, token := range iterator.Tokens() {
		color := tokenColor(style, token.Type)
		if color == "" {
			b.WriteString(token.Value)
			continue
		}
		st := r.NewStyle().Foreground(lipgloss.Color(color))
		// Render pads multi-line input into a block; style each line alone.
		for i, part := range strings.Split(token.Value, "\n") {
			if i > 0 {
				b.WriteString("\n")
			}
			if part != "" {
				b.WriteString(st.Render(part))
			}
		}
	}
	return b.String()
}

func lexerForFile(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return lexer
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
