package diskio

import (
	"iter"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/adamancini/toolup/internal/notify"
)

// DefaultThreads is the worker count used when none is configured. Disk
// latency is not CPU bound, so the pool is oversubscribed.
func DefaultThreads() int {
	return max(2*runtime.NumCPU(), 4)
}

// Threaded performs items on a pool of worker goroutines. The number of
// items in flight is bounded by a Controller window that never exceeds the
// worker count, so workers never block handing back results.
type Threaded struct {
	notify  notify.Handler
	ctrl    *Controller
	work    chan *Item
	done    chan *Item
	wg      sync.WaitGroup
	threads int

	inFlight int
	closed   bool
}

// NewThreaded starts threads workers. threads <= 0 uses DefaultThreads.
func NewThreaded(threads int, handler notify.Handler) *Threaded {
	if threads <= 0 {
		threads = DefaultThreads()
	}
	if handler == nil {
		handler = notify.Discard
	}

	t := &Threaded{
		notify:  handler,
		ctrl:    NewController(threads),
		work:    make(chan *Item, threads),
		done:    make(chan *Item, threads),
		threads: threads,
	}
	for range threads {
		t.wg.Add(1)
		go t.worker()
	}
	return t
}

func (t *Threaded) worker() {
	defer t.wg.Done()
	for item := range t.work {
		Perform(item)
		t.done <- item
	}
}

// Threads returns the pool size.
func (t *Threaded) Threads() int {
	return t.threads
}

// Controller exposes the concurrency controller for inspection.
func (t *Threaded) Controller() *Controller {
	return t.ctrl
}

func (t *Threaded) Execute(item *Item) iter.Seq[*Item] {
	item.Start = time.Now()

	ready := t.collect(nil)
	for t.inFlight >= t.ctrl.Window() {
		ready = t.receive(ready, <-t.done)
	}

	t.inFlight++
	t.work <- item
	return slices.Values(ready)
}

func (t *Threaded) Join() iter.Seq[*Item] {
	var ready []*Item
	for t.inFlight > 0 {
		ready = t.receive(ready, <-t.done)
	}
	return slices.Values(ready)
}

func (t *Threaded) Completed() iter.Seq[*Item] {
	return slices.Values(t.collect(nil))
}

// Close stops the workers. Items still in flight are waited for and dropped.
func (t *Threaded) Close() {
	if t.closed {
		return
	}
	t.closed = true
	close(t.work)
	for t.inFlight > 0 {
		<-t.done
		t.inFlight--
	}
	t.wg.Wait()
}

// collect drains finished items without blocking.
func (t *Threaded) collect(ready []*Item) []*Item {
	for {
		select {
		case item := <-t.done:
			ready = t.receive(ready, item)
		default:
			return ready
		}
	}
}

func (t *Threaded) receive(ready []*Item, item *Item) []*Item {
	t.inFlight--
	t.ctrl.Observe(item.Finish)
	return append(ready, item)
}
