package cli

import (
	tea "github.com/charmbracelet/bubbletea"
)

// RunCheckboxes displays a multi-select list and returns the ids
// of the checked items, ErrorUserCancelled when the user backed
// out
func RunCheckboxes(title string, items []CheckboxItem) ([]string, error) {
	model := CreateCheckboxes(CreateCheckboxesOpts{
		Title: title,
		Items: items,
	})
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return nil, err
	}
	if model.IsCancelled() {
		return nil, ErrorUserCancelled
	}
	return model.GetCheckedIds(), nil
}

// RunSelector displays a single-choice list and returns the value
// of the chosen item, ErrorUserCancelled when the user backed out
func RunSelector(choices []SelectorChoice) (string, error) {
	model := CreateSelector(SelectorOpts{
		Choices: choices,
	})
	if _, err := tea.NewProgram(model).Run(); err != nil {
		return "", err
	}
	if model.GetExitCode() == PromptCancelled {
		return "", ErrorUserCancelled
	}
	return model.GetValue(), nil
}
