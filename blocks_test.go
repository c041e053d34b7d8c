package psd

import (
	"bytes"
	"errors"
	"testing"
)

// writeBlock appends one additional info block with its payload padded
// to a 4-byte boundary.
func writeBlock(buf *bytes.Buffer, sig, key string, payload []byte) {
	buf.WriteString(sig)
	buf.WriteString(key)
	n := uint32(len(payload))
	buf.Write([]byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)})
	buf.Write(payload)
	buf.Write(make([]byte, pad4(n)))
}

func TestScanAdditionalInfo(t *testing.T) {
	var buf bytes.Buffer
	writeBlock(&buf, sig8BIM, "Lr16", []byte("abc"))   // 3 + 1 pad
	writeBlock(&buf, sig8B64, "Patt", nil)             // empty payload
	writeBlock(&buf, sig8BIM, "Txt2", make([]byte, 8)) // already aligned

	blocks, err := scanAdditionalInfo(newCursor(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("scanAdditionalInfo: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}

	want := []AdditionalInfoBlock{
		{Signature: sig8BIM, Key: "Lr16", Length: 3},
		{Signature: sig8B64, Key: "Patt", Length: 0},
		{Signature: sig8BIM, Key: "Txt2", Length: 8},
	}
	for i, b := range blocks {
		if b != want[i] {
			t.Errorf("block %d = %+v, want %+v", i, b, want[i])
		}
	}
}

func TestScanAdditionalInfoBadSignature(t *testing.T) {
	var buf bytes.Buffer
	writeBlock(&buf, "XXXX", "Lr16", []byte("abc"))

	_, err := scanAdditionalInfo(newCursor(buf.Bytes()), int64(buf.Len()))
	if !errors.Is(err, ErrInvalidBlockSignature) {
		t.Errorf("got %v, want ErrInvalidBlockSignature", err)
	}
}

func TestScanAdditionalInfoBudgetUnderrun(t *testing.T) {
	t.Run("header does not fit", func(t *testing.T) {
		var buf bytes.Buffer
		writeBlock(&buf, sig8BIM, "Lr16", nil)
		// 4 bytes of budget remain after the block, less than a header.
		_, err := scanAdditionalInfo(newCursor(buf.Bytes()), int64(buf.Len())+4)
		if !errors.Is(err, ErrBudgetUnderrun) {
			t.Errorf("got %v, want ErrBudgetUnderrun", err)
		}
	})

	t.Run("block overruns budget", func(t *testing.T) {
		var buf bytes.Buffer
		writeBlock(&buf, sig8BIM, "Lr16", make([]byte, 16))
		_, err := scanAdditionalInfo(newCursor(buf.Bytes()), int64(buf.Len())-4)
		if !errors.Is(err, ErrBudgetUnderrun) {
			t.Errorf("got %v, want ErrBudgetUnderrun", err)
		}
	})

	t.Run("payload truncated", func(t *testing.T) {
		var buf bytes.Buffer
		writeBlock(&buf, sig8BIM, "Lr16", make([]byte, 16))
		data := buf.Bytes()[:buf.Len()-8]
		_, err := scanAdditionalInfo(newCursor(data), int64(buf.Len()))
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("got %v, want ErrTruncated", err)
		}
	})
}

// The scanner must exit with a budget of exactly zero on well-formed
// input; a positive exit would mean silent overrun.
func TestScanAdditionalInfoExactBudget(t *testing.T) {
	var buf bytes.Buffer
	for _, n := range []int{0, 1, 2, 3, 4, 5} {
		writeBlock(&buf, sig8BIM, "test", make([]byte, n))
	}

	c := newCursor(buf.Bytes())
	blocks, err := scanAdditionalInfo(c, int64(buf.Len()))
	if err != nil {
		t.Fatalf("scanAdditionalInfo: %v", err)
	}
	if len(blocks) != 6 {
		t.Errorf("got %d blocks, want 6", len(blocks))
	}
	if c.remaining() != 0 {
		t.Errorf("%d bytes left unconsumed", c.remaining())
	}
}

func TestPad4(t *testing.T) {
	want := map[uint32]uint32{0: 0, 1: 3, 2: 2, 3: 1, 4: 0, 5: 3, 8: 0}
	for n, p := range want {
		if got := pad4(n); got != p {
			t.Errorf("pad4(%d) = %d, want %d", n, got, p)
		}
	}
}
