package protocol

// InputBuffer is the receive side seen by Transport.Receive: the unparsed
// bytes, and a way to drop the ones a block consumed.
type InputBuffer interface {
	Data() []byte
	Available() int
	Pop(n int)
}

// OutputBuffer is where blocks are encoded. Update and DataSince let the
// encoder patch the length byte and checksum the block after writing it.
// Overflowed reports output that did not fit since the last Truncate, and
// Truncate drops a block that could not be finished.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
	Overflowed() bool
	Truncate(pos int)
}

// SliceInputBuffer is an InputBuffer over a slice the caller owns
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte {
	return s.data
}

func (s *SliceInputBuffer) Available() int {
	return len(s.data)
}

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput implements OutputBuffer over a fixed array, so encoding a
// block never allocates. Output past MessageMax is dropped and flagged.
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow bool
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < len(s.buf) {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything encoded since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

// Truncate discards everything from pos on and clears the overflow flag
func (s *ScratchOutput) Truncate(pos int) {
	if pos < s.pos {
		s.pos = pos
	}
	s.overflow = false
}

func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// FifoBuffer queues received bytes until the block parser consumes them.
// Data is always one contiguous slice: consumed bytes are dropped from the
// front and the tail is moved down when a write needs the room.
type FifoBuffer struct {
	buf   []byte
	start int
	end   int
}

// NewFifoBuffer creates a queue holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count taken
func (f *FifoBuffer) Write(data []byte) int {
	if len(data) > len(f.buf)-f.end && f.start > 0 {
		f.end = copy(f.buf, f.buf[f.start:f.end])
		f.start = 0
	}
	n := copy(f.buf[f.end:], data)
	f.end += n
	return n
}

// Available returns the number of queued bytes
func (f *FifoBuffer) Available() int {
	return f.end - f.start
}

// Free returns the number of bytes a Write can still take
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available()
}

// Data returns the queued bytes. The slice aliases the queue and is valid
// until the next Write or Reset.
func (f *FifoBuffer) Data() []byte {
	return f.buf[f.start:f.end]
}

// Pop drops n bytes from the front
func (f *FifoBuffer) Pop(n int) {
	if n >= f.Available() {
		f.Reset()
		return
	}
	f.start += n
}

// IsEmpty reports whether nothing is queued
func (f *FifoBuffer) IsEmpty() bool {
	return f.start == f.end
}

// Reset drops everything
func (f *FifoBuffer) Reset() {
	f.start = 0
	f.end = 0
}
