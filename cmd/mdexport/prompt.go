package main

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	mdexport "github.com/alnah/go-mdexport"
)

// huhPrompter asks for the destination in the terminal, prefilled with a
// suggested path. Aborting the form cancels the export.
type huhPrompter struct {
	suggested string
}

func (p huhPrompter) PromptDestination(ctx context.Context, req mdexport.DestinationRequest) (string, bool, error) {
	path := p.suggested
	if path == "" {
		path = req.DefaultName
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(req.Title).
			Value(&path),
	))
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", false, nil
		}
		return "", false, err
	}

	path = strings.TrimSpace(path)
	return path, path != "", nil
}

// choosePrompter prompts only for a single interactive export without an
// explicit --output; every other run writes to suggested directly.
func choosePrompter(f *exportFlags, env *Environment, single bool, suggested string) mdexport.DestinationPrompter {
	if f.yes || f.output != "" || !single || !env.Interactive() {
		return mdexport.FixedDestination(suggested)
	}
	return huhPrompter{suggested: suggested}
}
