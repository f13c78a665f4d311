package core

// resize.go models drag-to-resize as a scoped session.
//
// A session is acquired at drag start and owns the host's pointer capture
// (global move/up listeners, cursor and text-selection styling). The capture
// is released exactly once, whether the gesture ends normally with End or is
// abandoned with Close, e.g. when the table is torn down mid-drag.

import "sync"

// PointerCapture is the host-side drag tracking installed for the duration
// of one gesture.
type PointerCapture interface {
	Acquire()
	Release()
}

// NopCapture is a PointerCapture that does nothing. Hosts without global
// pointer state (HTTP, terminal) use it.
type NopCapture struct{}

func (NopCapture) Acquire() {}
func (NopCapture) Release() {}

// ResizeWidth computes the dragged width: startWidth plus the pointer delta,
// never below MinColumnWidth.
func ResizeWidth(startWidth, startX, currentX int) int {
	w := startWidth + (currentX - startX)
	if w < MinColumnWidth {
		return MinColumnWidth
	}
	return w
}

// DragSession is one active resize gesture on a column.
type DragSession struct {
	table      *Table
	key        string
	startX     int
	startWidth int
	capture    PointerCapture

	mu     sync.Mutex
	width  int
	closed bool
}

// Column returns the key of the column being resized.
func (d *DragSession) Column() string { return d.key }

// StartWidth returns the effective width captured at drag start.
func (d *DragSession) StartWidth() int { return d.startWidth }

// Move recomputes the width for pointer position x, applies it to the live
// column and returns it. Moves after the session closed are ignored.
func (d *DragSession) Move(x int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return d.width
	}
	d.width = ResizeWidth(d.startWidth, d.startX, x)
	d.table.applyDragWidth(d.key, d.width)
	return d.width
}

// End persists the final width and releases the session. It returns the
// persisted width.
func (d *DragSession) End() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return d.width
	}
	d.table.applyDragWidth(d.key, d.width)
	d.release()
	return d.width
}

// Close abandons the gesture. The width from the last Move is kept, and the
// capture is released. Close is safe to call more than once and after End.
func (d *DragSession) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.release()
}

// release must be called with d.mu held.
func (d *DragSession) release() {
	d.closed = true
	d.capture.Release()
	d.table.dragEnded(d)
}
