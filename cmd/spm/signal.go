package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// canceller is satisfied by *engine.Discoverer.
type canceller interface {
	Cancel()
}

// signalContext cancels c on the first interrupt so the instance in flight
// finishes, and cancels the context on the second.
func signalContext(parent context.Context, c canceller) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sig:
			c.Cancel()
		case <-ctx.Done():
			return
		}
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sig)
		cancel()
	}
}
