// Package tui implements the interactive prompt surface on bubbletea.
//
// Each prompt is its own small model run to completion, so the calling
// flow stays strictly sequential: ask, validate, re-prompt in place on
// bad input, return the accepted value. The wizard in internal/app only
// sees the Prompter interface and is tested with a scripted fake.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user aborts a prompt (Esc/Ctrl-C).
var ErrCancelled = errors.New("cancelled")

// Prompter is the interaction surface the wizard depends on.
type Prompter interface {
	// Select shows a numbered menu and returns the chosen 0-based index.
	Select(title string, options []string) (int, error)

	// Input asks for a single line, re-prompting until validate accepts.
	Input(label string, validate func(string) error) (string, error)

	// Multiline collects free text terminated by an empty line after at
	// least one non-empty line.
	Multiline(label string) (string, error)

	// Confirm asks a yes/no question.
	Confirm(question string) (bool, error)
}

// Terminal is the bubbletea-backed Prompter.
type Terminal struct {
	Styles Styles
}

// ---------------------------------------------------------------------------
// Select
// ---------------------------------------------------------------------------

// selectModel renders a numbered option list. Arrow keys move the
// cursor; typing digits jumps by number; enter confirms.
type selectModel struct {
	title   string
	options []string
	styles  Styles
	cursor  int
	typed   string
	done    bool
	aborted bool
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.aborted = true
		return m, tea.Quit
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
		m.typed = ""
		return m, nil
	case tea.KeyDown:
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
		m.typed = ""
		return m, nil
	case tea.KeyEnter:
		m.done = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if m.typed != "" {
			m.typed = m.typed[:len(m.typed)-1]
		}
		return m, nil
	}
	s := key.String()
	switch s {
	case "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.typed = ""
	case "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
		m.typed = ""
	default:
		if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
			typed := m.typed + s
			if n, err := strconv.Atoi(typed); err == nil && n >= 1 && n <= len(m.options) {
				m.typed = typed
				m.cursor = n - 1
			}
		}
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title) + "\n")
	for i, opt := range m.options {
		marker := "  "
		line := fmt.Sprintf("[%d] %s", i+1, opt)
		if i == m.cursor {
			b.WriteString(m.styles.Cursor.Render("> "+line) + "\n")
			continue
		}
		b.WriteString(marker + m.styles.Option.Render(line) + "\n")
	}
	b.WriteString(m.styles.Muted.Render("arrows/j/k or number, enter to choose") + "\n")
	return b.String()
}

// Select runs the numbered menu and returns the chosen index.
func (t *Terminal) Select(title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options to select from")
	}
	m := selectModel{title: title, options: options, styles: t.Styles}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return 0, err
	}
	res := final.(selectModel)
	if res.aborted {
		return 0, ErrCancelled
	}
	return res.cursor, nil
}

// ---------------------------------------------------------------------------
// Input
// ---------------------------------------------------------------------------

// inputModel asks for one validated line. Rejected input keeps the
// prompt on screen with the validation message; nothing is lost.
type inputModel struct {
	label    string
	styles   Styles
	input    textinput.Model
	validate func(string) error
	errMsg   string
	done     bool
	aborted  bool
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			if err := m.validate(m.input.Value()); err != nil {
				m.errMsg = err.Error()
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	view := fmt.Sprintf("%s %s\n", m.styles.Title.Render(m.label+":"), m.input.View())
	if m.errMsg != "" {
		view += m.styles.Error.Render("✗ "+m.errMsg) + "\n"
	}
	return view
}

// Input asks for a single line, looping until validate accepts it.
func (t *Terminal) Input(label string, validate func(string) error) (string, error) {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Focus()
	if validate == nil {
		validate = func(string) error { return nil }
	}
	m := inputModel{label: label, styles: t.Styles, input: ti, validate: validate}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", err
	}
	res := final.(inputModel)
	if res.aborted {
		return "", ErrCancelled
	}
	return strings.TrimSpace(res.input.Value()), nil
}

// ---------------------------------------------------------------------------
// Multiline
// ---------------------------------------------------------------------------

// multilineModel collects the description in a textarea. An enter press
// on an empty line finishes the text once at least one non-empty line
// exists; a blank first line is ignored rather than treated as the end.
type multilineModel struct {
	label   string
	styles  Styles
	area    textarea.Model
	done    bool
	aborted bool
}

func (m multilineModel) Init() tea.Cmd { return textarea.Blink }

func (m multilineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyEnter:
			if terminatesInput(m.area.Value()) {
				m.done = true
				return m, tea.Quit
			}
			if strings.TrimSpace(m.area.Value()) == "" {
				// Blank first line: swallow the enter, keep waiting.
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.area, cmd = m.area.Update(msg)
	return m, cmd
}

func (m multilineModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	return fmt.Sprintf("%s %s\n%s\n",
		m.styles.Title.Render(m.label+":"),
		m.styles.Muted.Render("(finish with an empty line)"),
		m.area.View())
}

// terminatesInput reports whether the text ends with an empty line
// preceded by at least one non-empty line.
func terminatesInput(text string) bool {
	lines := strings.Split(text, "\n")
	if strings.TrimSpace(lines[len(lines)-1]) != "" {
		return false
	}
	for _, line := range lines[:len(lines)-1] {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}

// Multiline collects free multi-line text.
func (t *Terminal) Multiline(label string) (string, error) {
	ta := textarea.New()
	ta.CharLimit = 0
	ta.Focus()
	m := multilineModel{label: label, styles: t.Styles, area: ta}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", err
	}
	res := final.(multilineModel)
	if res.aborted {
		return "", ErrCancelled
	}
	return strings.TrimRight(res.area.Value(), "\n \t"), nil
}

// ---------------------------------------------------------------------------
// Confirm
// ---------------------------------------------------------------------------

type confirmModel struct {
	question string
	styles   Styles
	answer   bool
	done     bool
	aborted  bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.aborted = true
		return m, tea.Quit
	}
	switch strings.ToLower(key.String()) {
	case "y":
		m.answer, m.done = true, true
		return m, tea.Quit
	case "n":
		m.answer, m.done = false, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	return m.styles.Title.Render(m.question) + m.styles.Muted.Render(" [y/n] ") + "\n"
}

// Confirm asks a yes/no question answered with a single keypress.
func (t *Terminal) Confirm(question string) (bool, error) {
	m := confirmModel{question: question, styles: t.Styles}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return false, err
	}
	res := final.(confirmModel)
	if res.aborted {
		return false, ErrCancelled
	}
	return res.answer, nil
}
