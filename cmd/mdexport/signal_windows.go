//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// notifyContext cancels exports on Ctrl-C so open browsers are closed
// before exit. Windows has no SIGTERM.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt)
}
