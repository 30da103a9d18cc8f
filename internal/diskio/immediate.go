package diskio

import (
	"iter"
	"slices"
	"time"
)

// Immediate performs every item synchronously inside Execute.
type Immediate struct{}

// NewImmediate returns an immediate executor.
func NewImmediate() *Immediate {
	return &Immediate{}
}

func (e *Immediate) Execute(item *Item) iter.Seq[*Item] {
	item.Start = time.Now()
	Perform(item)
	return slices.Values([]*Item{item})
}

func (e *Immediate) Join() iter.Seq[*Item] {
	return none
}

func (e *Immediate) Completed() iter.Seq[*Item] {
	return none
}

func (e *Immediate) Close() {}
