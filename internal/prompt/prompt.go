// Package prompt asks the user questions on the terminal.
package prompt

import (
	"errors"
	"strings"

	"github.com/pterm/pterm"
)

// ErrEmptyAnswer is returned when a required text answer is blank.
var ErrEmptyAnswer = errors.New("an answer is required")

// Prompter asks interactive questions.
type Prompter interface {
	Confirm(question string, def bool) (bool, error)
	Text(question, def string) (string, error)
	Select(question string, options []string, def string) (string, error)
}

// Terminal implements Prompter with pterm's interactive printers.
type Terminal struct{}

// NewTerminal returns a Prompter bound to the process terminal.
func NewTerminal() *Terminal {
	return &Terminal{}
}

func (Terminal) Confirm(question string, def bool) (bool, error) {
	return pterm.DefaultInteractiveConfirm.
		WithDefaultValue(def).
		Show(question)
}

func (Terminal) Text(question, def string) (string, error) {
	answer, err := pterm.DefaultInteractiveTextInput.
		WithDefaultValue(def).
		Show(question)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

func (Terminal) Select(question string, options []string, def string) (string, error) {
	p := pterm.DefaultInteractiveSelect.WithOptions(options)
	if def != "" {
		p = p.WithDefaultOption(def)
	}
	return p.Show(question)
}
