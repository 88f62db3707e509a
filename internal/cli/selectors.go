package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type SelectorOpts struct {
	Choices []SelectorChoice
}

// SelectorChoice is one row of a single-choice list, the Value is
// what the caller receives when the row is chosen
type SelectorChoice struct {
	Label       string
	Description string
	Value       string
}

func (sc SelectorChoice) render(isHighlighted bool) string {
	if isHighlighted {
		return fmt.Sprintf("%s %s",
			focusedStyle.Render(fmt.Sprintf("> %s", sc.Label)),
			blurredStyle.Render(fmt.Sprintf("(%s)", sc.Description)),
		)
	}
	return fmt.Sprintf("  %s", blurredStyle.Render(sc.Label))
}

func CreateSelector(opts SelectorOpts) *SelectorModel {
	return &SelectorModel{
		choices:  opts.Choices,
		selected: -1,
	}
}

type SelectorModel struct {
	choices []SelectorChoice

	cursor     int
	selected   int
	isQuitting bool

	exitCode PromptExitCode
}

func (m SelectorModel) GetExitCode() PromptExitCode {
	return m.exitCode
}

// GetValue returns the value of the chosen row, empty when nothing
// was chosen
func (m SelectorModel) GetValue() string {
	if m.selected < 0 {
		return ""
	}
	return m.choices[m.selected].Value
}

func (m SelectorModel) Init() tea.Cmd {
	return nil
}

func (m *SelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			m.exitCode = PromptCancelled
			m.isQuitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}

		case "enter":
			m.selected = m.cursor
			m.isQuitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SelectorModel) View() string {
	var b strings.Builder

	for i, choice := range m.choices {
		fmt.Fprintf(&b, "%s\n", choice.render(m.cursor == i))
	}
	if !m.isQuitting {
		b.WriteString(blurredStyle.Render("\nUse [up]/k and [down]/j to move, enter to select, q to quit.\n"))
	}
	b.WriteRune('\n')

	return b.String()
}
