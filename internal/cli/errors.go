package cli

import "errors"

var (
	ErrorInvalidInput = errors.New("invalid_input")
	ErrorNoSelection  = errors.New("no_selection")
)
