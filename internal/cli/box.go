package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	boxButtonOkay = iota
	boxButtonCancel
)

// boxMaxWidth keeps boxes readable on wide terminals
const boxMaxWidth = 72

var boxStyle = lipgloss.NewStyle().
	Border(lipgloss.ThickBorder()).
	Padding(1, 2)

var boxButtonStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder()).
	Padding(0, 5)

// boxModel renders a bordered dialog with a confirm and a cancel
// button, driven by ShowConfirmation
type boxModel struct {
	Title           string
	Message         string
	Color           AnsiColor
	ForegroundColor AnsiColor
	ConfirmLabel    string
	CancelLabel     string
	IsFullScreen    bool
	Width           int
	Height          int

	cursor int
	choice int
}

func (m boxModel) GetChoice() int {
	return m.choice
}

func (m boxModel) Init() tea.Cmd {
	return nil
}

func (m *boxModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h":
			if m.cursor > 0 {
				m.cursor--
			}
		case "right", "l":
			if m.cursor < 1 {
				m.cursor++
			}
		case "enter":
			m.choice = boxButtonCancel
			if m.cursor == 0 {
				m.choice = boxButtonOkay
			}
			return m, tea.Quit
		case "q", "ctrl+c", "esc":
			m.choice = boxButtonCancel
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		if m.IsFullScreen {
			m.Width = msg.Width
			m.Height = msg.Height
		}
	}
	return m, nil
}

func (m boxModel) View() string {
	frame := boxStyle.BorderForeground(lipgloss.Color(m.Color))
	if m.IsFullScreen {
		frame = frame.Width(m.Width - 2).Align(lipgloss.Center)
	} else {
		frame = frame.Width(m.Width)
	}

	title := lipgloss.NewStyle().Bold(true).Render(m.Title)
	buttons := lipgloss.JoinHorizontal(
		lipgloss.Center,
		m.renderButton(m.ConfirmLabel, m.cursor == 0, true),
		"  ",
		m.renderButton(m.CancelLabel, m.cursor == 1, false),
	)
	box := frame.Render(fmt.Sprintf("%s\n\n%s\n\n%s", title, m.Message, buttons))

	if m.IsFullScreen {
		m.Width, m.Height, _ = term.GetSize(int(os.Stdout.Fd()))
		return lipgloss.Place(
			m.Width,
			m.Height,
			lipgloss.Center,
			lipgloss.Center,
			box,
		)
	}
	return box + "\n"
}

// renderButton highlights the focused button, the confirm button
// additionally picks up the accent colour as its background so a
// destructive default stands out
func (m boxModel) renderButton(label string, isFocused, isConfirm bool) string {
	style := boxButtonStyle.BorderForeground(lipgloss.Color(m.ForegroundColor))
	if isFocused {
		style = style.BorderStyle(lipgloss.ThickBorder())
		if isConfirm {
			style = style.Background(lipgloss.Color(m.Color))
		}
	}
	return style.Render(label)
}

func printBoxedMessage(color AnsiColor, header, message string) {
	width, _, _ := term.GetSize(int(os.Stdout.Fd()))
	if width == 0 || width > boxMaxWidth {
		width = boxMaxWidth
	}
	header = lipgloss.NewStyle().Bold(true).Render(header)
	fmt.Println(
		boxStyle.
			BorderForeground(lipgloss.Color(color)).
			Align(lipgloss.Left).
			Width(width).
			Render(fmt.Sprintf("%s\n\n%s", header, message)),
	)
}

func PrintBoxedErrorMessage(message string) {
	printBoxedMessage(AnsiRed, "🔴 ERROR", message)
}

func PrintBoxedInfoMessage(message string) {
	printBoxedMessage(AnsiBlue, "🔵 INFORMATION", message)
}

func PrintBoxedWarningMessage(message string) {
	printBoxedMessage(AnsiYellow, "🟡 WARNING", message)
}

func PrintBoxedSuccessMessage(message string) {
	printBoxedMessage(AnsiGreen, "✅ SUCCESS", message)
}
