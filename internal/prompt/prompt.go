// Package prompt asks the user to confirm a statement before it runs.
// Destructive schema changes can additionally require the table name to be
// typed back.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/sqlcraft/internal/theme"
)

// ErrAborted is returned when the user quits with ctrl+c.
var ErrAborted = errors.New("prompt: aborted")

// Request describes one confirmation.
type Request struct {
	Title string
	// Body is shown as-is; callers pass highlighted SQL.
	Body string
	// Require, when set, must be typed exactly before Apply is accepted.
	Require string
}

// Confirmer decides whether a statement may run.
type Confirmer interface {
	Confirm(ctx context.Context, req Request) (bool, error)
}

// Static answers every request the same way. It backs --yes and
// non-interactive runs.
type Static bool

func (s Static) Confirm(context.Context, Request) (bool, error) { return bool(s), nil }

// Terminal runs the confirmation dialog on a terminal.
type Terminal struct {
	In    io.Reader
	Out   io.Writer
	Theme *theme.Theme
}

// Confirm shows the dialog and blocks until it is answered or ctx ends.
func (t Terminal) Confirm(ctx context.Context, req Request) (bool, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}
	final, err := tea.NewProgram(NewDialog(req, t.Theme), opts...).Run()
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	d := final.(Dialog)
	if d.aborted {
		return false, ErrAborted
	}
	return d.confirmed, nil
}

// KeyMap holds the dialog bindings.
type KeyMap struct {
	Left   key.Binding
	Right  key.Binding
	Submit key.Binding
	Yes    key.Binding
	No     key.Binding
	Abort  key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left:   key.NewBinding(key.WithKeys("left", "shift+tab", "h"), key.WithHelp("←", "previous")),
		Right:  key.NewBinding(key.WithKeys("right", "tab", "l"), key.WithHelp("→", "next")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
		Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "apply")),
		No:     key.NewBinding(key.WithKeys("n", "N", "esc"), key.WithHelp("n/esc", "cancel")),
		Abort:  key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

const (
	buttonApply = iota
	buttonCancel
)

var buttonLabels = [...]string{"Apply", "Cancel"}

// Dialog is the bubbletea model behind Terminal. Cancel is focused first.
type Dialog struct {
	req   Request
	th    *theme.Theme
	keys  KeyMap
	input textinput.Model
	width int

	active    int
	confirmed bool
	aborted   bool
	done      bool
	hint      string
}

// NewDialog builds the dialog for req.
func NewDialog(req Request, th *theme.Theme) Dialog {
	if th == nil {
		th = theme.Default()
	}
	d := Dialog{req: req, th: th, keys: DefaultKeyMap(), active: buttonCancel, width: 72}
	if req.Require != "" {
		in := textinput.New()
		in.Placeholder = req.Require
		in.Prompt = "> "
		in.CharLimit = 256
		in.Focus()
		d.input = in
	}
	return d
}

func (d Dialog) Init() tea.Cmd {
	if d.req.Require != "" {
		return textinput.Blink
	}
	return nil
}

func (d Dialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 8 && msg.Width-4 < d.width {
			d.width = msg.Width - 4
		}
		return d, nil
	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	if d.req.Require != "" {
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		return d, cmd
	}
	return d, nil
}

func (d Dialog) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, d.keys.Abort):
		d.aborted, d.done = true, true
		return d, tea.Quit
	case key.Matches(msg, d.keys.Submit):
		return d.choose(d.active)
	case d.req.Require != "" && msg.Type == tea.KeyEsc:
		return d.choose(buttonCancel)
	case d.req.Require != "" && msg.Type != tea.KeyTab && msg.Type != tea.KeyShiftTab:
		// Typed text goes to the input; only tab moves between buttons.
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		d.hint = ""
		return d, cmd
	case key.Matches(msg, d.keys.Left):
		d.active = buttonApply
	case key.Matches(msg, d.keys.Right):
		d.active = buttonCancel
	case key.Matches(msg, d.keys.Yes):
		return d.choose(buttonApply)
	case key.Matches(msg, d.keys.No):
		return d.choose(buttonCancel)
	}
	return d, nil
}

func (d Dialog) choose(button int) (tea.Model, tea.Cmd) {
	if button == buttonApply && d.req.Require != "" && strings.TrimSpace(d.input.Value()) != d.req.Require {
		d.active = buttonApply
		d.hint = fmt.Sprintf("type %q to apply", d.req.Require)
		return d, nil
	}
	d.confirmed = button == buttonApply
	d.done = true
	return d, tea.Quit
}

func (d Dialog) View() string {
	if d.done {
		return ""
	}
	th := d.th
	inner := d.width - 6

	parts := []string{th.DialogTitle.Render(d.req.Title)}
	if d.req.Body != "" {
		parts = append(parts, "", lipgloss.NewStyle().MaxWidth(inner).Render(d.req.Body))
	}
	if d.req.Require != "" {
		parts = append(parts, "", th.WarningText.Render(fmt.Sprintf("Type %s to confirm:", d.req.Require)), d.input.View())
	}
	if d.hint != "" {
		parts = append(parts, th.ErrorText.Render(d.hint))
	}

	btns := make([]string, len(buttonLabels))
	for i, label := range buttonLabels {
		style := th.DialogButton
		if i == d.active {
			style = th.DialogButtonActive
		}
		btns[i] = style.Render(label)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Center, btns[0], "  ", btns[1])
	parts = append(parts, "", lipgloss.PlaceHorizontal(inner, lipgloss.Center, row),
		"", th.MutedText.Render(d.helpLine()))

	return th.DialogBorder.Width(d.width).Render(lipgloss.JoinVertical(lipgloss.Left, parts...)) + "\n"
}

func (d Dialog) helpLine() string {
	bindings := []key.Binding{d.keys.Submit, d.keys.Left, d.keys.Right}
	if d.req.Require == "" {
		bindings = append(bindings, d.keys.Yes, d.keys.No)
	}
	items := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		items = append(items, h.Key+" "+h.Desc)
	}
	return strings.Join(items, " • ")
}

// Confirmed reports the answer once the dialog has quit.
func (d Dialog) Confirmed() bool { return d.confirmed }

// Done reports whether the dialog has been answered or aborted.
func (d Dialog) Done() bool { return d.done }
