package ui

import (
	"errors"
	"sync"
)

// ErrQueueFull indicates the staging sequence is at capacity.
var ErrQueueFull = errors.New("ui queue full")

// Default capacities. A slow refresh stages 6 labels and 1 graphic, a fast
// refresh at most 2 graphics.
const (
	DefaultGraphicCap = 16
	DefaultLabelCap   = 16
	DefaultDeleteCap  = 8
)

type fifo[T any] struct {
	items []T
	head  int
	size  int
}

func newFIFO[T any](capacity int) fifo[T] {
	return fifo[T]{items: make([]T, capacity)}
}

func (f *fifo[T]) push(v T) bool {
	if f.size == len(f.items) {
		return false
	}
	f.items[(f.head+f.size)%len(f.items)] = v
	f.size++
	return true
}

func (f *fifo[T]) pop() (v T, ok bool) {
	if f.size == 0 {
		return
	}
	var zero T
	v, f.items[f.head] = f.items[f.head], zero
	f.head = (f.head + 1) % len(f.items)
	f.size--
	return v, true
}

func (f *fifo[T]) clear() {
	for f.size > 0 {
		f.pop()
	}
	f.head = 0
}

// Queue stages pending UI operations, one bounded FIFO per kind.
// It is safe for one producer and one consumer on different goroutines.
type Queue struct {
	graphics fifo[Graphic]
	labels   fifo[Label]
	deletes  fifo[Delete]
	lock     sync.Mutex
}

// NewQueue creates a Queue with the given capacities.
func NewQueue(graphicCap, labelCap, deleteCap int) *Queue {
	if graphicCap <= 0 {
		graphicCap = DefaultGraphicCap
	}
	if labelCap <= 0 {
		labelCap = DefaultLabelCap
	}
	if deleteCap <= 0 {
		deleteCap = DefaultDeleteCap
	}
	return &Queue{
		graphics: newFIFO[Graphic](graphicCap),
		labels:   newFIFO[Label](labelCap),
		deletes:  newFIFO[Delete](deleteCap),
	}
}

// NewDefaultQueue creates a Queue with default capacities.
func NewDefaultQueue() *Queue {
	return NewQueue(0, 0, 0)
}

// PushGraphic stages a graphic.
func (q *Queue) PushGraphic(g Graphic) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if !q.graphics.push(g) {
		return ErrQueueFull
	}
	return nil
}

// PushLabel stages a label.
func (q *Queue) PushLabel(l Label) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if !q.labels.push(l) {
		return ErrQueueFull
	}
	return nil
}

// PushDelete stages a delete.
func (q *Queue) PushDelete(d Delete) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if !q.deletes.push(d) {
		return ErrQueueFull
	}
	return nil
}

// PopDelete removes the oldest delete.
func (q *Queue) PopDelete() (Delete, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.deletes.pop()
}

// PopGraphic removes the oldest graphic.
func (q *Queue) PopGraphic() (Graphic, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.graphics.pop()
}

// PopLabel removes the oldest label.
func (q *Queue) PopLabel() (Label, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.labels.pop()
}

// GraphicCount returns the number of staged graphics.
func (q *Queue) GraphicCount() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.graphics.size
}

// LabelCount returns the number of staged labels.
func (q *Queue) LabelCount() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.labels.size
}

// DeleteCount returns the number of staged deletes.
func (q *Queue) DeleteCount() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.deletes.size
}

// Clear drops everything staged.
func (q *Queue) Clear() {
	q.lock.Lock()
	q.graphics.clear()
	q.labels.clear()
	q.deletes.clear()
	q.lock.Unlock()
}
