package field

// Buffer is a read/write pair of grids. Operators read from Read and write
// into Write, then Swap.
type Buffer struct {
	read  *Grid
	write *Grid
}

// NewBuffer allocates both sides with the same shape.
func NewBuffer(shape Shape) *Buffer {
	return &Buffer{read: NewGrid(shape), write: NewGrid(shape)}
}

// Shape returns the shared resolution of both sides.
func (b *Buffer) Shape() Shape { return b.read.shape }

// Read returns the current read side.
func (b *Buffer) Read() *Grid { return b.read }

// Write returns the current write side.
func (b *Buffer) Write() *Grid { return b.write }

// Swap exchanges the two sides without copying.
func (b *Buffer) Swap() {
	b.read, b.write = b.write, b.read
}

// Clear zeroes the write side and swaps, leaving the read side cleared.
func (b *Buffer) Clear() {
	b.write.Zero()
	b.Swap()
}
