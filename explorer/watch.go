// Copyright 2026 Converter Systems LLC. All rights reserved.

package explorer

import (
	"context"
	"fmt"
	"io"
	"time"
)

// DefaultPollInterval is the interval between reads of a watched value.
const DefaultPollInterval = time.Second

// Watcher reads the value of a node repeatedly until cancelled.
type Watcher struct {
	interval time.Duration
}

// NewWatcher returns a Watcher that polls at the given interval.
// A non-positive interval selects DefaultPollInterval.
func NewWatcher(interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{interval: interval}
}

// Watch prints the node's value, status and server timestamp once per interval until
// ctx is done, and then returns ctx.Err(). A failed read is printed in place of the value
// and polling continues with the next tick.
func (w *Watcher) Watch(ctx context.Context, out io.Writer, n *Node) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.poll(ctx, out, n); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Watcher) poll(ctx context.Context, out io.Writer, n *Node) error {
	dv, err := n.ReadDataValue(ctx)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		_, err = fmt.Fprintf(out, "%s %s\n", n, errorMarker(err))
		return err
	}
	ts := dv.ServerTimestamp
	if ts.IsZero() {
		ts = dv.SourceTimestamp
	}
	_, err = fmt.Fprintf(out, "%s %s %s %s\n", format(ts), n, format(dv.StatusCode), repr(dv.Value))
	return err
}
