package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"roulette/events"

	log "github.com/sirupsen/logrus"
)

// MirrorWorker periodically replicates the ledger to an external store.
// It runs off the request path and only exports when something changed.
type MirrorWorker struct {
	source   SnapshotSource
	exporter SnapshotExporter
	interval time.Duration
	dirty    atomic.Bool
}

// NewMirrorWorker creates a mirror worker. The first run always exports.
func NewMirrorWorker(source SnapshotSource, exporter SnapshotExporter, interval time.Duration) *MirrorWorker {
	w := &MirrorWorker{
		source:   source,
		exporter: exporter,
		interval: interval,
	}
	w.dirty.Store(true)
	return w
}

// MarkDirty schedules an export on the next tick
func (w *MirrorWorker) MarkDirty() {
	w.dirty.Store(true)
}

// Subscribe marks the mirror dirty whenever a balance changes
func (w *MirrorWorker) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		w.MarkDirty()
	})
	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, event events.Event) {
		w.MarkDirty()
	})
}

// RunOnce exports the current snapshot if the ledger changed since the last export
func (w *MirrorWorker) RunOnce(ctx context.Context) error {
	if !w.dirty.Swap(false) {
		return nil
	}

	snapshot, err := w.source.Export(ctx)
	if err != nil {
		w.dirty.Store(true)
		return fmt.Errorf("failed to snapshot ledger: %w", err)
	}

	if err := w.exporter.Export(ctx, snapshot); err != nil {
		w.dirty.Store(true)
		return fmt.Errorf("failed to export snapshot: %w", err)
	}

	log.WithField("accounts", len(snapshot)).Debug("Mirrored ledger snapshot")
	return nil
}

// Start runs the worker until ctx is cancelled.
// Returns a cleanup function that stops the worker and performs a final export.
func (w *MirrorWorker) Start(ctx context.Context) func() {
	ticker := time.NewTicker(w.interval)
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.WithField("interval", w.interval).Info("Ledger mirror worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Ledger mirror worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Ledger mirror worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				if err := w.RunOnce(ctx); err != nil {
					log.Errorf("Error mirroring ledger: %v", err)
				}
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
		<-done

		// Flush whatever changed since the last tick
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := w.RunOnce(flushCtx); err != nil {
			log.Errorf("Error mirroring ledger on shutdown: %v", err)
		}
	}
}
