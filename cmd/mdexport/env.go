package main

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout      io.Writer
	Stderr      io.Writer
	Getenv      func(string) string
	Interactive func() bool // true when a save prompt can be shown
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Getenv:      os.Getenv,
		Interactive: stdinIsTerminal,
	}
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
