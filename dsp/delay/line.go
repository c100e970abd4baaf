package delay

import "fmt"

// Line is a fixed-capacity circular delay buffer.
//
// One Write advances the cursor by one sample; Read looks back a whole
// number of samples from the cursor. Delay lengths are snapped to integer
// samples by design, which audibly quantizes very short modulation depths
// at low sample rates.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line holding size samples, all zero.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write stores one sample at the cursor and advances it.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample delay positions behind the cursor.
// A delay of 1 is the most recently written sample. The caller must keep
// delay in [0, Len()-1]; out-of-range values are a precondition violation.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	readPos := (d.writePos - delay + size) % size
	return d.buffer[readPos]
}

// Process writes input, advances the cursor, and returns the sample
// delay positions behind the new cursor position. Process(x, 1) returns
// x itself; Process(x, n) returns the input from n-1 calls earlier.
func (d *Line) Process(input float64, delay int) float64 {
	d.Write(input)
	return d.Read(delay)
}

// Resize reallocates to size samples, clearing all content and resetting
// the cursor. No history is preserved or resampled; resizing is only
// meant for initialization and sample-rate changes, never mid-stream.
func (d *Line) Resize(size int) error {
	if size <= 0 {
		return fmt.Errorf("delay size must be > 0: %d", size)
	}
	if size == len(d.buffer) {
		d.Reset()
		return nil
	}
	d.buffer = make([]float64, size)
	d.writePos = 0
	return nil
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
