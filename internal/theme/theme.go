// Package theme holds the terminal styles sqlcraft uses for highlighted
// SQL, result tables and confirmation dialogs.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme is a named set of lipgloss styles.
type Theme struct {
	Name string

	// SQL highlighting
	SQLKeyword  lipgloss.Style
	SQLString   lipgloss.Style
	SQLNumber   lipgloss.Style
	SQLComment  lipgloss.Style
	SQLOperator lipgloss.Style
	SQLFunction lipgloss.Style
	SQLType     lipgloss.Style

	// Result tables
	TableBorder lipgloss.Style
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableNull   lipgloss.Style

	// Confirmation dialog
	DialogBorder       lipgloss.Style
	DialogTitle        lipgloss.Style
	DialogButton       lipgloss.Style
	DialogButtonActive lipgloss.Style

	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	MutedText   lipgloss.Style
}

type palette struct {
	keyword, str, number, comment, operator, function, typ string
	border, header, headerBg, cell, muted                   string
	accent, buttonFg, buttonBg                              string
	errFg, okFg, warnFg                                     string
}

func build(name string, p palette) *Theme {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return &Theme{
		Name: name,

		SQLKeyword:  fg(p.keyword).Bold(true),
		SQLString:   fg(p.str),
		SQLNumber:   fg(p.number),
		SQLComment:  fg(p.comment).Italic(true),
		SQLOperator: fg(p.operator),
		SQLFunction: fg(p.function),
		SQLType:     fg(p.typ),

		TableBorder: fg(p.border),
		TableHeader: fg(p.header).Background(lipgloss.Color(p.headerBg)).Bold(true).Padding(0, 1),
		TableCell:   fg(p.cell).Padding(0, 1),
		TableNull:   fg(p.muted).Italic(true).Padding(0, 1),

		DialogBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.accent)).
			Padding(1, 2),
		DialogTitle:        fg(p.accent).Bold(true),
		DialogButton:       fg(p.cell).Background(lipgloss.Color(p.headerBg)).Padding(0, 2),
		DialogButtonActive: fg(p.buttonFg).Background(lipgloss.Color(p.buttonBg)).Bold(true).Padding(0, 2),

		ErrorText:   fg(p.errFg).Bold(true),
		SuccessText: fg(p.okFg),
		WarningText: fg(p.warnFg),
		MutedText:   fg(p.muted),
	}
}

// Themes lists the built-in themes by name.
var Themes = map[string]*Theme{
	"default": build("default", palette{
		keyword: "#569CD6", str: "#CE9178", number: "#B5CEA8", comment: "#6A9955",
		operator: "#D4D4D4", function: "#DCDCAA", typ: "#4EC9B0",
		border: "#3C3C3C", header: "#569CD6", headerBg: "#252526", cell: "#D4D4D4", muted: "#808080",
		accent: "#569CD6", buttonFg: "#FFFFFF", buttonBg: "#264F78",
		errFg: "#F44747", okFg: "#6A9955", warnFg: "#CCA700",
	}),
	"light": build("light", palette{
		keyword: "#0000FF", str: "#A31515", number: "#098658", comment: "#008000",
		operator: "#000000", function: "#795E26", typ: "#267F99",
		border: "#CCCCCC", header: "#0000FF", headerBg: "#F3F3F3", cell: "#000000", muted: "#6E6E6E",
		accent: "#005FB8", buttonFg: "#FFFFFF", buttonBg: "#005FB8",
		errFg: "#CD3131", okFg: "#008000", warnFg: "#BF8803",
	}),
	"monokai": build("monokai", palette{
		keyword: "#F92672", str: "#E6DB74", number: "#AE81FF", comment: "#75715E",
		operator: "#F8F8F2", function: "#A6E22E", typ: "#66D9EF",
		border: "#49483E", header: "#A6E22E", headerBg: "#3E3D32", cell: "#F8F8F2", muted: "#75715E",
		accent: "#66D9EF", buttonFg: "#272822", buttonBg: "#A6E22E",
		errFg: "#F92672", okFg: "#A6E22E", warnFg: "#FD971F",
	}),
}

// Default returns the dark default theme.
func Default() *Theme {
	return Themes["default"]
}

// Get returns the named theme, or the default one for unknown names.
func Get(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Default()
}
