package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/giantswarm/demoup/internal/sentinel"
)

// ErrSignalReceived is the cancellation cause of a context returned by
// NotifyContext once a signal arrives. The wrapped message names the signal.
const ErrSignalReceived = sentinel.Error("signal received")

// NotifyContext returns a copy of parent that is canceled, with a cause
// matching ErrSignalReceived, when one of sigs arrives. With no sigs it
// listens for SIGINT and SIGTERM. Only the first signal is handled; after
// that the default disposition is restored, so a second Ctrl+C terminates
// the launcher immediately.
//
// The returned stop function releases the signal registration and cancels
// the context.
func NotifyContext(parent context.Context, log *slog.Logger, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	if log == nil {
		log = Logger()
	}
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			log.Info("received signal, shutting down", "signal", sig.String())
			cancel(fmt.Errorf("%w: %s", ErrSignalReceived, sig))
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		cancel(context.Canceled)
	}
}
