package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// renderHeader returns a styled header with an optional muted subtitle.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded border around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

type fieldSpec struct {
	label       string
	placeholder string
	secret      bool
	limit       int
}

type formField struct {
	label string
	input textinput.Model
}

// form is a vertical stack of labelled text inputs with one focused at a
// time. Enter on the last field submits.
type form struct {
	title  string
	fields []formField
	focus  int
	width  int
}

func newForm(title string, specs ...fieldSpec) *form {
	f := &form{title: title, width: 40}
	for _, fs := range specs {
		ti := textinput.New()
		ti.Placeholder = fs.placeholder
		ti.Prompt = ""
		if fs.limit > 0 {
			ti.CharLimit = fs.limit
		}
		if fs.secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.fields = append(f.fields, formField{label: fs.label, input: ti})
	}
	return f
}

// Reset clears every field and focuses the first one.
func (f *form) Reset() tea.Cmd {
	for i := range f.fields {
		f.fields[i].input.Reset()
	}
	return f.focusAt(0)
}

// Fill sets initial values, in field order.
func (f *form) Fill(values ...string) {
	for i, v := range values {
		if i < len(f.fields) {
			f.fields[i].input.SetValue(v)
		}
	}
}

func (f *form) Values() []string {
	out := make([]string, len(f.fields))
	for i, field := range f.fields {
		out[i] = strings.TrimSpace(field.input.Value())
	}
	return out
}

func (f *form) Focused() bool {
	return f.focus >= 0 && f.focus < len(f.fields) && f.fields[f.focus].input.Focused()
}

func (f *form) OnLast() bool { return f.focus == len(f.fields)-1 }

func (f *form) Next() tea.Cmd { return f.focusAt((f.focus + 1) % len(f.fields)) }

func (f *form) Prev() tea.Cmd {
	return f.focusAt((f.focus - 1 + len(f.fields)) % len(f.fields))
}

func (f *form) focusAt(i int) tea.Cmd {
	for j := range f.fields {
		f.fields[j].input.Blur()
	}
	f.focus = i
	return f.fields[i].input.Focus()
}

func (f *form) SetWidth(w int) {
	if w < 20 {
		w = 20
	}
	if w > 72 {
		w = 72
	}
	f.width = w
	for i := range f.fields {
		f.fields[i].input.Width = w
	}
}

// Update forwards msg to the focused input.
func (f *form) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

func (f *form) View(help string) string {
	rows := []string{TitleStyle.Render(f.title), ""}
	for i, field := range f.fields {
		rows = append(rows,
			renderMuted(field.label),
			renderInputFrame(field.input.View(), i == f.focus, f.width),
		)
	}
	rows = append(rows, "", renderHelp(help))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
