package prompt

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sqlcraft/internal/theme"
)

// Kind classifies a notification.
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Warning Kind = "warning"
	Error   Kind = "error"
)

// Notifier shows short status messages.
type Notifier interface {
	Notify(kind Kind, msg string)
}

// Writer prints notifications to W, one per line, styled by kind.
type Writer struct {
	W     io.Writer
	Theme *theme.Theme
}

func (w Writer) Notify(kind Kind, msg string) {
	th := w.Theme
	if th == nil {
		th = theme.Default()
	}
	var style lipgloss.Style
	prefix := ""
	switch kind {
	case Success:
		style = th.SuccessText
	case Warning:
		style, prefix = th.WarningText, "warning: "
	case Error:
		style, prefix = th.ErrorText, "error: "
	default:
		style = th.MutedText
	}
	fmt.Fprintln(w.W, style.Render(prefix+msg))
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Kind, string) {}
