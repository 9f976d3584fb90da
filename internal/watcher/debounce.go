package watcher

import (
	"sync"
	"time"
)

// debouncer coalesces events per path. Each new event for a path restarts
// that path's window; the merged event is emitted once the window elapses
// without further activity. Error events bypass coalescing.
type debouncer struct {
	window time.Duration
	out    chan Event
	done   chan struct{}

	mu       sync.Mutex
	pending  map[string]*pendingEvent
	stopped  bool
	inflight sync.WaitGroup
}

type pendingEvent struct {
	event Event
	gen   uint64
	timer *time.Timer
}

func newDebouncer(window time.Duration, buffer int) *debouncer {
	return &debouncer{
		window:  window,
		out:     make(chan Event, buffer),
		done:    make(chan struct{}),
		pending: make(map[string]*pendingEvent),
	}
}

// add records an event. It never blocks on the consumer, except for error
// events which are forwarded directly.
func (d *debouncer) add(ev Event) {
	if ev.Type == EventError {
		d.forward(ev)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	p, ok := d.pending[ev.Path]
	if ok {
		p.timer.Stop()
		p.event = merge(p.event, ev)
		p.gen++
	} else {
		p = &pendingEvent{event: ev}
		d.pending[ev.Path] = p
	}

	path, gen := ev.Path, p.gen
	p.timer = time.AfterFunc(d.window, func() { d.fire(path, gen) })
}

// fire emits the pending event for path if no newer event superseded it.
func (d *debouncer) fire(path string, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[path]
	if !ok || p.gen != gen || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	ev := p.event
	d.inflight.Add(1)
	d.mu.Unlock()

	defer d.inflight.Done()
	d.emit(ev)
}

func (d *debouncer) forward(ev Event) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.inflight.Add(1)
	d.mu.Unlock()

	defer d.inflight.Done()
	d.emit(ev)
}

func (d *debouncer) emit(ev Event) {
	select {
	case d.out <- ev:
	case <-d.done:
	}
}

// pendingCount reports how many paths are waiting for their window to close.
func (d *debouncer) pendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// stop drops pending events, waits for in-flight sends and closes the output.
func (d *debouncer) stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, p := range d.pending {
		p.timer.Stop()
	}
	clear(d.pending)
	close(d.done)
	d.mu.Unlock()

	d.inflight.Wait()
	close(d.out)
}
