// Package notify implements the synchronous change-notification plumbing shared by
// the graph, group and annotation stores.
//
// A Dispatcher queues notifications while a mutation is in progress and delivers
// them, in order and on the caller's goroutine, once the outermost mutation ends.
// Stores that share one Dispatcher therefore deliver a multi-store operation (for
// example moving a group together with its member nodes) as a single batch.
package notify

// Dispatcher batches notifications across nested mutations.
// It is not safe for concurrent use.
type Dispatcher struct {
	depth     int
	queue     []func()
	idle      []func()
	flushing  bool
	batchSeen bool
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Begin opens a mutation scope. Every Begin must be paired with End.
func (d *Dispatcher) Begin() {
	d.depth++
}

// End closes a mutation scope and, when the outermost scope closes, delivers the
// queued notifications followed by the idle hooks.
func (d *Dispatcher) End() {
	if d.depth == 0 {
		return
	}
	d.depth--
	if d.depth == 0 {
		d.flush()
	}
}

// Enqueue schedules fn for delivery when the current batch completes.
// Outside of any scope it is delivered immediately.
func (d *Dispatcher) Enqueue(fn func()) {
	d.queue = append(d.queue, fn)
	if d.depth == 0 {
		d.flush()
	}
}

// OnIdle registers a hook run after every delivered batch that carried at least one
// notification. It returns a function that removes the hook.
func (d *Dispatcher) OnIdle(fn func()) func() {
	d.idle = append(d.idle, fn)
	idx := len(d.idle) - 1
	return func() {
		if idx < len(d.idle) {
			d.idle[idx] = nil
		}
	}
}

func (d *Dispatcher) flush() {
	if d.flushing {
		// Listeners that mutate while being notified extend the current batch.
		return
	}
	d.flushing = true
	for len(d.queue) > 0 {
		fn := d.queue[0]
		d.queue = d.queue[1:]
		d.batchSeen = true
		fn()
	}
	d.flushing = false

	if !d.batchSeen {
		return
	}
	d.batchSeen = false
	for _, hook := range d.idle {
		if hook != nil {
			hook()
		}
	}
}

// Listeners is an ordered set of subscribers of one event type.
type Listeners[E any] struct {
	next int
	subs []subscriber[E]
}

type subscriber[E any] struct {
	id int
	fn func(E)
}

// Add subscribes fn and returns a function that unsubscribes it.
func (l *Listeners[E]) Add(fn func(E)) func() {
	l.next++
	id := l.next
	l.subs = append(l.subs, subscriber[E]{id: id, fn: fn})
	return func() {
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// Len returns the number of subscribers.
func (l *Listeners[E]) Len() int {
	return len(l.subs)
}

// Emit queues delivery of e to every current subscriber on d.
func (l *Listeners[E]) Emit(d *Dispatcher, e E) {
	if len(l.subs) == 0 {
		return
	}
	subs := append([]subscriber[E](nil), l.subs...)
	d.Enqueue(func() {
		for _, s := range subs {
			s.fn(e)
		}
	})
}
