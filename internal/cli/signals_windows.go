//go:build windows

package cli

import (
	"context"
	"os"
)

func notifyControlSignals(chan<- os.Signal) {}

func handleControlSignal(context.Context, *app, os.Signal) {}
