package diskio

import (
	"iter"
	"os"
	"strconv"
	"strings"

	"github.com/adamancini/toolup/internal/notify"
	"github.com/adamancini/toolup/internal/types"
)

// ThreadsEnv selects the executor: "disabled" for immediate, or a worker count.
const ThreadsEnv = "TOOLUP_IO_THREADS"

// Executor performs items. Every submitted item is eventually yielded
// exactly once by Execute, Completed or Join.
type Executor interface {
	// Execute submits item. Under back-pressure earlier items may have to
	// complete first; they are yielded by the returned sequence.
	Execute(item *Item) iter.Seq[*Item]
	// Join waits for all outstanding items and yields them.
	Join() iter.Seq[*Item]
	// Completed yields items that have already finished without blocking.
	Completed() iter.Seq[*Item]
	// Close releases workers. Join must be drained first.
	Close()
}

// Factory creates an executor for one install.
type Factory func() Executor

// New creates an executor for mode. threads <= 0 uses the default pool size.
func New(mode types.IOMode, threads int, handler notify.Handler) Executor {
	if mode.Default().IsImmediate() {
		return NewImmediate()
	}
	return NewThreaded(threads, handler)
}

// ParseThreads interprets a thread setting: "disabled" or "immediate" selects
// the immediate executor, an integer sets the pool size, anything else is the
// default threaded executor.
func ParseThreads(s string) (types.IOMode, int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.IOModeThreaded, 0
	}
	if mode, err := types.ParseIOMode(s); err == nil {
		return mode.Default(), 0
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return types.IOModeThreaded, n
	}
	return types.IOModeThreaded, 0
}

// FromEnv returns a factory configured by TOOLUP_IO_THREADS.
func FromEnv(handler notify.Handler) Factory {
	mode, threads := ParseThreads(os.Getenv(ThreadsEnv))
	return func() Executor {
		return New(mode, threads, handler)
	}
}

func none(func(*Item) bool) {}
