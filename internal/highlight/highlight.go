// Package highlight colours generated SQL and PHP for terminal output.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sqlcraft/internal/theme"
)

// Highlighter tokenises source with a chroma lexer and styles each token
// from a theme.
type Highlighter struct {
	lexer chroma.Lexer
}

// New returns a Highlighter for the named chroma language. Unknown names
// fall back to plain text.
func New(language string) *Highlighter {
	l := lexers.Get(language)
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(l)}
}

// SQL returns a Highlighter for MySQL statements.
func SQL() *Highlighter {
	if lexers.Get("MySQL") == nil {
		return New("SQL")
	}
	return New("MySQL")
}

// PHP returns a Highlighter for generated classes.
func PHP() *Highlighter {
	return New("PHP")
}

// Highlight renders src with th. A nil theme, or a lexer error, returns src
// unchanged.
func (h *Highlighter) Highlight(src string, th *theme.Theme) string {
	if th == nil {
		return src
	}
	iter, err := h.lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var b strings.Builder
	b.Grow(len(src) * 2)
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		style, ok := styleFor(tok.Type, th)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		// Newlines stay outside the escape sequences.
		lines := strings.Split(tok.Value, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(style.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func styleFor(tt chroma.TokenType, th *theme.Theme) (lipgloss.Style, bool) {
	switch {
	case tt == chroma.KeywordType || tt == chroma.NameBuiltin:
		return th.SQLType, true
	case tt == chroma.NameFunction:
		return th.SQLFunction, true
	case tt.InCategory(chroma.Keyword):
		return th.SQLKeyword, true
	case tt.InSubCategory(chroma.LiteralString):
		return th.SQLString, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return th.SQLNumber, true
	case tt.InCategory(chroma.Comment):
		return th.SQLComment, true
	case tt.InCategory(chroma.Operator):
		return th.SQLOperator, true
	}
	return lipgloss.Style{}, false
}
