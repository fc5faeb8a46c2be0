package console

import (
	"github.com/AlecAivazis/survey/v2"
)

// Prompter asks the operator yes/no questions.
type Prompter interface {
	Confirm(message string, def bool) (bool, error)
}

// SurveyPrompter asks on the terminal.
type SurveyPrompter struct {
	opts []survey.AskOpt
}

// NewSurveyPrompter creates a terminal prompter. opts are passed to every
// question, e.g. survey.WithStdio in tests.
func NewSurveyPrompter(opts ...survey.AskOpt) *SurveyPrompter {
	return &SurveyPrompter{opts: opts}
}

// Confirm asks message and returns the answer.
func (p *SurveyPrompter) Confirm(message string, def bool) (bool, error) {
	confirmed := def
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}
	if err := survey.AskOne(prompt, &confirmed, p.opts...); err != nil {
		return false, err
	}
	return confirmed, nil
}

// StaticPrompter answers every question the same way, for non-interactive use.
type StaticPrompter bool

// Confirm returns the fixed answer.
func (p StaticPrompter) Confirm(string, bool) (bool, error) {
	return bool(p), nil
}
