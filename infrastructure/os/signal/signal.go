// Package signal turns OS interrupts into channel closes.
package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// interruptSignals defines the signals that are handled to do a clean
// shutdown.
var interruptSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// InterruptListener listens for OS Signals such as SIGINT (Ctrl+C) and
// returns a channel that is closed on the first one. Further signals are
// logged and otherwise ignored.
func InterruptListener() <-chan struct{} {
	c := make(chan struct{})
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, interruptSignals...)

		sig := <-interruptChannel
		log.Infof("Received signal (%s). Shutting down...", sig)
		close(c)

		for sig := range interruptChannel {
			log.Infof("Received signal (%s). Already shutting down...", sig)
		}
	}()

	return c
}

// InterruptContext returns a context that is cancelled on the first
// interrupt signal or when cancel is called.
func InterruptContext(parent context.Context) (ctx context.Context, cancel context.CancelFunc) {
	ctx, cancel = context.WithCancel(parent)
	interrupt := InterruptListener()
	go func() {
		select {
		case <-interrupt:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
