package cli

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

var (
	ErrorUserCancelled = errors.New("user_cancelled")
)

type ShowConfirmationOpts struct {
	ColorForeground AnsiColor
	ColorAccent     AnsiColor

	Title        string
	Message      string
	IsFullScreen bool

	ConfirmLabel     string
	CancelLabel      string
	IsConfirmDefault bool
}

func ShowConfirmation(opts ShowConfirmationOpts) error {
	var height, width int
	if !opts.IsFullScreen {
		width, height, _ = term.GetSize(int(os.Stdout.Fd()))
		if width > boxMaxWidth {
			width = boxMaxWidth
		}
	}
	accentColor := opts.ColorAccent
	if accentColor == "" {
		accentColor = AnsiBlue
	}
	foregroundColor := opts.ColorForeground
	if foregroundColor == "" {
		foregroundColor = AnsiWhite
	}
	cancelLabel := opts.CancelLabel
	if cancelLabel == "" {
		cancelLabel = "Cancel"
	}
	confirmLabel := opts.ConfirmLabel
	if confirmLabel == "" {
		confirmLabel = "OK"
	}
	initialCursorPosition := 1
	if opts.IsConfirmDefault {
		initialCursorPosition = 0
	}
	model := boxModel{
		CancelLabel:     cancelLabel,
		Color:           accentColor,
		ConfirmLabel:    confirmLabel,
		ForegroundColor: foregroundColor,
		Height:          height,
		IsFullScreen:    opts.IsFullScreen,
		Message:         opts.Message,
		Title:           opts.Title,
		Width:           width,

		cursor: initialCursorPosition,
	}
	teaOpts := []tea.ProgramOption{}
	if opts.IsFullScreen {
		teaOpts = append(teaOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(&model, teaOpts...)
	_, err := program.Run()
	if err != nil {
		return err
	}
	if model.GetChoice() == boxButtonCancel {
		return ErrorUserCancelled
	}
	return nil
}

func ShowWarningWithConfirmation(message string, isFullScreen bool) error {
	return ShowConfirmation(ShowConfirmationOpts{
		ColorAccent:     AnsiRed,
		ColorForeground: AnsiWhite,
		Title:           "🔴🔴🔴 WARNING 🔴🔴🔴",
		Message:         message,
		IsFullScreen:    isFullScreen,
		ConfirmLabel:    "OK",
		CancelLabel:     "Cancel",
	})
}
