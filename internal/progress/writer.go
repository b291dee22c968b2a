package progress

import (
	"context"
	"sync"
)

// snapshot is the full progress state sent in one write
type snapshot struct {
	mode Mode
	// lesson mode
	progress  int
	completed []string
	// slide mode
	cursor      int
	total       int
	isCompleted bool
}

// writer sends snapshots one at a time. A snapshot submitted while a write is
// in flight replaces any older unsent one, so only the latest state is sent next.
type writer struct {
	mu      sync.Mutex
	pending *snapshot
	running bool
	idle    chan struct{}

	ctx   context.Context
	save  func(ctx context.Context, s snapshot) error
	onErr func(error)
}

func newWriter(ctx context.Context, save func(context.Context, snapshot) error, onErr func(error)) *writer {
	return &writer{
		ctx:   ctx,
		save:  save,
		onErr: onErr,
	}
}

// submit queues s, superseding any unsent snapshot. When no write is in
// flight s is sent immediately.
func (w *writer) submit(s snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		w.pending = &s
		return
	}
	w.running = true
	w.idle = make(chan struct{})
	go w.loop(s)
}

func (w *writer) loop(s snapshot) {
	for {
		if err := w.save(w.ctx, s); err != nil {
			w.onErr(err)
		}

		w.mu.Lock()
		if w.pending == nil {
			w.running = false
			close(w.idle)
			w.mu.Unlock()
			return
		}
		s = *w.pending
		w.pending = nil
		w.mu.Unlock()
	}
}

// flush blocks until every submitted snapshot has been sent or ctx is done
func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	idle := w.idle
	w.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
