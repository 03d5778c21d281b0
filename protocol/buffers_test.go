package protocol

import (
	"bytes"
	"testing"
)

func TestSliceInputBufferPop(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})

	buf.Pop(2)
	if buf.Available() != 3 || buf.Data()[0] != 3 {
		t.Errorf("after Pop(2): available %d, data %v", buf.Available(), buf.Data())
	}

	buf.Pop(10)
	if buf.Available() != 0 {
		t.Errorf("over-pop should empty the buffer, %d left", buf.Available())
	}
}

func TestScratchOutput(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{1, 2, 3})
	mark := scratch.CurPosition()
	scratch.Output([]byte{4, 5})

	scratch.Update(0, 99)
	if !bytes.Equal(scratch.Result(), []byte{99, 2, 3, 4, 5}) {
		t.Errorf("unexpected result %v", scratch.Result())
	}
	if !bytes.Equal(scratch.DataSince(mark), []byte{4, 5}) {
		t.Errorf("DataSince(%d) = %v", mark, scratch.DataSince(mark))
	}
	if scratch.DataSince(mark+10) != nil {
		t.Error("DataSince past the end should be nil")
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 || len(scratch.Result()) != 0 {
		t.Error("reset should empty the buffer")
	}
}

func TestScratchOutputFlagsOverflow(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageMax-2))
	if scratch.Overflowed() {
		t.Fatal("overflow flagged before the buffer filled")
	}

	scratch.Output(make([]byte, 12))
	if scratch.CurPosition() != MessageMax {
		t.Errorf("expected output capped at %d, got %d", MessageMax, scratch.CurPosition())
	}
	if !scratch.Overflowed() {
		t.Error("dropped output should set the overflow flag")
	}

	scratch.Truncate(10)
	if scratch.Overflowed() || scratch.CurPosition() != 10 {
		t.Errorf("truncate: overflowed=%v pos=%d", scratch.Overflowed(), scratch.CurPosition())
	}
	scratch.Truncate(20)
	if scratch.CurPosition() != 10 {
		t.Errorf("truncate past the end should not grow the buffer, pos=%d", scratch.CurPosition())
	}
}

func TestFifoBufferCapacity(t *testing.T) {
	fifo := NewFifoBuffer(10)
	if !fifo.IsEmpty() || fifo.Free() != 10 {
		t.Fatalf("new FIFO: empty=%v free=%d", fifo.IsEmpty(), fifo.Free())
	}

	if written := fifo.Write(make([]byte, 12)); written != 10 {
		t.Errorf("size-10 FIFO should accept 10 bytes, took %d", written)
	}
	if fifo.Free() != 0 {
		t.Errorf("full FIFO should have no free space, has %d", fifo.Free())
	}
}

func TestFifoBufferCompacts(t *testing.T) {
	fifo := NewFifoBuffer(5)
	fifo.Write([]byte{1, 2, 3, 4})
	fifo.Pop(3)

	if n := fifo.Write([]byte{5, 6, 7}); n != 3 {
		t.Fatalf("expected 3 bytes written after compaction, got %d", n)
	}
	if !bytes.Equal(fifo.Data(), []byte{4, 5, 6, 7}) {
		t.Errorf("Data() = %v, expected [4 5 6 7]", fifo.Data())
	}

	fifo.Pop(2)
	if !bytes.Equal(fifo.Data(), []byte{6, 7}) {
		t.Errorf("after Pop(2) Data() = %v", fifo.Data())
	}

	fifo.Pop(10)
	if !fifo.IsEmpty() || fifo.Free() != 5 {
		t.Errorf("over-pop should empty the FIFO, free %d", fifo.Free())
	}
}
