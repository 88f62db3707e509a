package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(AnsiBlue))
	blurredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(AnsiGray))
	noStyle      = lipgloss.NewStyle()
)

type PromptExitCode int

const (
	PromptCompleted PromptExitCode = 0
	PromptCancelled PromptExitCode = 1
)

type PromptInputType string

const (
	PromptInteger PromptInputType = "integer"
	PromptString  PromptInputType = "string"
)

// PromptInput declares one free-text field of a prompt, integer
// fields reject non-digit characters as they are typed
type PromptInput struct {
	Id          string
	Type        PromptInputType
	Placeholder string
}

type PromptButtonType string

const (
	PromptButtonCancel PromptButtonType = "cancel"
	PromptButtonSubmit PromptButtonType = "submit"
)

type PromptButton struct {
	Id    string
	Label string
	Type  PromptButtonType
}

func (pb PromptButton) render(isFocused bool) string {
	if isFocused {
		return focusedStyle.Render(fmt.Sprintf("[ %s ]", pb.Label))
	}
	return fmt.Sprintf("[ %s ]", blurredStyle.Render(pb.Label))
}

type PromptOpts struct {
	Title   string
	Inputs  []PromptInput
	Buttons []PromptButton
}

// CreatePrompt assembles a form of text inputs followed by a row of
// buttons, the first input starts focused
func CreatePrompt(opts PromptOpts) *PromptModel {
	m := &PromptModel{
		title:   opts.Title,
		ids:     make([]string, len(opts.Inputs)),
		inputs:  make([]textinput.Model, len(opts.Inputs)),
		buttons: opts.Buttons,
		outputs: map[string]string{},
	}
	for i, declared := range opts.Inputs {
		field := textinput.New()
		field.Cursor.Style = focusedStyle
		field.Width = 64
		field.CharLimit = 256
		field.Placeholder = declared.Placeholder
		if declared.Type == PromptInteger {
			field.CharLimit = 3
			field.Validate = digitsOnly
		}
		if i == 0 {
			field.Focus()
			field.PromptStyle = focusedStyle
			field.TextStyle = focusedStyle
		}
		m.ids[i] = declared.Id
		m.inputs[i] = field
	}
	return m
}

func digitsOnly(value string) error {
	for _, r := range value {
		if r < '0' || r > '9' {
			return fmt.Errorf("digits only")
		}
	}
	return nil
}

type PromptModel struct {
	title   string
	ids     []string
	inputs  []textinput.Model
	buttons []PromptButton

	focusIndex int
	isQuitting bool
	outputs    map[string]string
	exitCode   PromptExitCode
}

func (m PromptModel) GetExitCode() PromptExitCode {
	return m.exitCode
}

// GetValue returns what was typed into the input declared under
// `id`, empty until the prompt was submitted
func (m PromptModel) GetValue(id string) string {
	return m.outputs[id]
}

func (m PromptModel) itemCount() int {
	return len(m.inputs) + len(m.buttons)
}

func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.inputs) == 0 {
		m.exitCode = PromptCompleted
		return m, tea.Quit
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.exitCode = PromptCancelled
			m.isQuitting = true
			return m, tea.Quit

		case "enter":
			// enter inside the form advances, enter on a button
			// resolves the prompt
			if m.focusIndex < len(m.inputs) {
				return m, m.moveFocus(1)
			}
			m.press(m.buttons[m.focusIndex-len(m.inputs)])
			m.isQuitting = true
			return m, tea.Quit

		case "tab", "down":
			return m, m.moveFocus(1)
		case "shift+tab", "up":
			return m, m.moveFocus(-1)
		case "left":
			if m.focusIndex >= len(m.inputs) {
				return m, m.moveFocus(-1)
			}
		case "right":
			if m.focusIndex >= len(m.inputs) {
				return m, m.moveFocus(1)
			}
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *PromptModel) moveFocus(delta int) tea.Cmd {
	m.focusIndex += delta
	if m.focusIndex >= m.itemCount() {
		m.focusIndex = 0
	} else if m.focusIndex < 0 {
		m.focusIndex = m.itemCount() - 1
	}
	cmds := []tea.Cmd{}
	for i := range m.inputs {
		if i == m.focusIndex {
			cmds = append(cmds, m.inputs[i].Focus())
			m.inputs[i].PromptStyle = focusedStyle
			m.inputs[i].TextStyle = focusedStyle
			continue
		}
		m.inputs[i].Blur()
		m.inputs[i].PromptStyle = noStyle
		m.inputs[i].TextStyle = noStyle
	}
	return tea.Batch(cmds...)
}

func (m *PromptModel) press(button PromptButton) {
	switch button.Type {
	case PromptButtonCancel:
		m.exitCode = PromptCancelled
	case PromptButtonSubmit:
		for i, input := range m.inputs {
			m.outputs[m.ids[i]] = input.Value()
		}
		m.exitCode = PromptCompleted
	}
}

func (m PromptModel) View() string {
	var b strings.Builder

	if m.title != "" {
		fmt.Fprintf(&b, "%s\n\n", m.title)
	}
	for i := range m.inputs {
		b.WriteString(m.inputs[i].View())
		b.WriteRune('\n')
	}
	if !m.isQuitting && len(m.buttons) > 0 {
		b.WriteRune('\n')
		for i, button := range m.buttons {
			fmt.Fprintf(&b, "%s\t", button.render(m.focusIndex == len(m.inputs)+i))
		}
		b.WriteRune('\n')
	}
	b.WriteRune('\n')

	return b.String()
}
