package cli

// AnsiColor is an ANSI-256 palette index as lipgloss expects it
type AnsiColor string

const (
	AnsiWhite AnsiColor = "7"
	AnsiGray  AnsiColor = "239"

	AnsiRed    AnsiColor = "9"
	AnsiYellow AnsiColor = "3"
	AnsiGreen  AnsiColor = "2"
	AnsiBlue   AnsiColor = "33"
)
