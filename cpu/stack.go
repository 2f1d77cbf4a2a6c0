package cpu

import (
	"slices"
)

// Frames tracks the bytes pushed by PUSH within each call frame.
// Data[0] is the frame outside of any call; each CALL opens another.
type Frames struct {
	Data []int
}

// Reset to a single, empty, outermost frame.
func (fr *Frames) Reset() {
	fr.Data = append(fr.Data[:0], 0)
}

// Open a frame for a call.
func (fr *Frames) Open() {
	fr.Data = append(fr.Data, 0)
}

// Close the innermost call frame, returning its push count.
func (fr *Frames) Close() (pushes int, ok bool) {
	if fr.Depth() == 0 {
		return
	}
	pushes = fr.Data[len(fr.Data)-1]
	fr.Data = fr.Data[:len(fr.Data)-1]
	ok = true
	return
}

// Depth returns the number of open call frames.
func (fr *Frames) Depth() int {
	return max(len(fr.Data)-1, 0)
}

// Pushes returns the push count of the innermost frame.
func (fr *Frames) Pushes() int {
	if len(fr.Data) == 0 {
		return 0
	}
	return fr.Data[len(fr.Data)-1]
}

// Push counts a push in the innermost frame.
func (fr *Frames) Push() {
	if len(fr.Data) == 0 {
		fr.Reset()
	}
	fr.Data[len(fr.Data)-1]++
}

// Pop counts a pop in the innermost frame, failing if it has no pushes.
func (fr *Frames) Pop() (ok bool) {
	if fr.Pushes() == 0 {
		return
	}
	fr.Data[len(fr.Data)-1]--
	ok = true
	return
}

// Clone returns an independent copy.
func (fr *Frames) Clone() Frames {
	return Frames{Data: slices.Clone(fr.Data)}
}
