package psd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func writeHeader(buf *bytes.Buffer, sig string, version, channels uint16, height, width uint32, depth uint16, mode ColorMode) {
	buf.WriteString(sig)
	binary.Write(buf, binary.BigEndian, version)
	buf.Write(make([]byte, 6)) // reserved
	binary.Write(buf, binary.BigEndian, channels)
	binary.Write(buf, binary.BigEndian, height)
	binary.Write(buf, binary.BigEndian, width)
	binary.Write(buf, binary.BigEndian, depth)
	binary.Write(buf, binary.BigEndian, uint16(mode))
}

func TestParseHeader(t *testing.T) {
	var buf bytes.Buffer
	writeHeader(&buf, sigPSD, 1, 4, 480, 640, 8, ColorModeRGB)

	h, err := parseHeader(newCursor(buf.Bytes()))
	if err != nil {
		t.Fatalf("parseHeader: %v", err)
	}
	want := Header{Version: 1, Channels: 4, Height: 480, Width: 640, Depth: 8, ColorMode: ColorModeRGB}
	if h != want {
		t.Errorf("header = %+v, want %+v", h, want)
	}
}

func TestParseHeaderRejections(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		var buf bytes.Buffer
		writeHeader(&buf, "XXXX", 1, 4, 2, 2, 8, ColorModeRGB)

		c := newCursor(buf.Bytes())
		_, err := parseHeader(c)
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Fatalf("got %v, want ErrSignatureMismatch", err)
		}
		// Rejection happens right after the magic read; nothing else is
		// consumed.
		if c.offset() != 4 {
			t.Errorf("offset = %d, want 4", c.offset())
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		var buf bytes.Buffer
		writeHeader(&buf, sigPSD, 2, 4, 2, 2, 8, ColorModeRGB)
		_, err := parseHeader(newCursor(buf.Bytes()))
		if !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("got %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := parseHeader(newCursor([]byte("8BPS\x00\x01")))
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("got %v, want ErrTruncated", err)
		}
	})
}

func TestParseSkippedSection(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(5))
	buf.Write([]byte{1, 2, 3, 4, 5})
	buf.WriteString("next")

	c := newCursor(buf.Bytes())
	length, err := parseSkippedSection(c, "color mode data")
	if err != nil {
		t.Fatalf("parseSkippedSection: %v", err)
	}
	if length != 5 {
		t.Errorf("length = %d, want 5", length)
	}
	// The cursor must land exactly past the payload so the following
	// section parses from the right offset.
	if sig, _ := c.readSignature(); sig != "next" {
		t.Errorf("cursor landed at %q", sig)
	}
}

func TestParseSkippedSectionTruncated(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(100))
	buf.Write([]byte{1, 2})

	if _, err := parseSkippedSection(newCursor(buf.Bytes()), "image resources"); !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func writeLayerRecordFixed(buf *bytes.Buffer, top, left, bottom, right int32, channels []ChannelInfo) {
	binary.Write(buf, binary.BigEndian, top)
	binary.Write(buf, binary.BigEndian, left)
	binary.Write(buf, binary.BigEndian, bottom)
	binary.Write(buf, binary.BigEndian, right)
	binary.Write(buf, binary.BigEndian, uint16(len(channels)))
	for _, ch := range channels {
		binary.Write(buf, binary.BigEndian, ch.ID)
		binary.Write(buf, binary.BigEndian, ch.Length)
	}
}

func TestParseLayerRecord(t *testing.T) {
	var buf bytes.Buffer
	channels := []ChannelInfo{{ID: ChannelRed, Length: 6}, {ID: ChannelAlpha, Length: 10}}
	writeLayerRecordFixed(&buf, 1, 2, 5, 10, channels)
	buf.WriteString(sig8BIM)
	buf.WriteString("norm")
	buf.Write([]byte{255, 0, 0x42, 0}) // opacity, clipping, flags, filler
	binary.Write(&buf, binary.BigEndian, uint32(24))

	r, err := parseLayerRecord(newCursor(buf.Bytes()))
	if err != nil {
		t.Fatalf("parseLayerRecord: %v", err)
	}
	if r.Top != 1 || r.Left != 2 || r.Bottom != 5 || r.Right != 10 {
		t.Errorf("rect = (%d,%d,%d,%d)", r.Top, r.Left, r.Bottom, r.Right)
	}
	if r.Width() != 8 || r.Height() != 4 {
		t.Errorf("size = %dx%d, want 8x4", r.Width(), r.Height())
	}
	if len(r.Channels) != 2 || r.Channels[0] != channels[0] || r.Channels[1] != channels[1] {
		t.Errorf("channels = %+v", r.Channels)
	}
	if !r.SignatureValid || r.BlendMode != "norm" || r.Opacity != 255 || r.Flags != 0x42 || r.ExtraLength != 24 {
		t.Errorf("record = %+v", r)
	}
}

// A bad blend signature leaves the cursor right after the signature and
// the remaining fields at zero; the rectangle and channel list stay
// valid.
func TestParseLayerRecordBadSignature(t *testing.T) {
	var buf bytes.Buffer
	writeLayerRecordFixed(&buf, 0, 0, 2, 2, []ChannelInfo{{ID: ChannelRed, Length: 6}})
	buf.WriteString("BOGU")
	buf.WriteString("tail")

	c := newCursor(buf.Bytes())
	r, err := parseLayerRecord(c)
	if err != nil {
		t.Fatalf("parseLayerRecord: %v", err)
	}
	if r.SignatureValid {
		t.Error("SignatureValid = true for bad signature")
	}
	if r.BlendMode != "" || r.Opacity != 0 || r.ExtraLength != 0 {
		t.Errorf("fields not zero: %+v", r)
	}
	if len(r.Channels) != 1 {
		t.Errorf("channels = %+v", r.Channels)
	}
	if sig, _ := c.readSignature(); sig != "tail" {
		t.Errorf("cursor landed at %q", sig)
	}
}

func TestParseLayerRecordNegativeBounds(t *testing.T) {
	var buf bytes.Buffer
	writeLayerRecordFixed(&buf, 5, 0, 2, 2, nil) // bottom < top

	_, err := parseLayerRecord(newCursor(buf.Bytes()))
	if !errors.Is(err, ErrInvalidLayerBounds) {
		t.Errorf("got %v, want ErrInvalidLayerBounds", err)
	}
}

func TestParseGlobalLayerMaskInfo(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		var buf bytes.Buffer
		binary.Write(&buf, binary.BigEndian, uint32(0))

		g, err := parseGlobalLayerMaskInfo(newCursor(buf.Bytes()))
		if err != nil {
			t.Fatalf("parseGlobalLayerMaskInfo: %v", err)
		}
		if g.Length != 0 {
			t.Errorf("length = %d", g.Length)
		}
	})

	t.Run("with filler", func(t *testing.T) {
		var buf bytes.Buffer
		binary.Write(&buf, binary.BigEndian, uint32(16))
		binary.Write(&buf, binary.BigEndian, uint16(1))
		for _, c := range []uint16{10, 20, 30, 40} {
			binary.Write(&buf, binary.BigEndian, c)
		}
		binary.Write(&buf, binary.BigEndian, uint16(100))
		buf.WriteByte(128)
		buf.Write(make([]byte, 3)) // filler to declared length
		buf.WriteString("tail")

		c := newCursor(buf.Bytes())
		g, err := parseGlobalLayerMaskInfo(c)
		if err != nil {
			t.Fatalf("parseGlobalLayerMaskInfo: %v", err)
		}
		want := GlobalLayerMaskInfo{
			Length: 16, OverlayColorSpace: 1,
			Color: [4]uint16{10, 20, 30, 40}, Opacity: 100, Kind: 128,
		}
		if g != want {
			t.Errorf("info = %+v, want %+v", g, want)
		}
		if sig, _ := c.readSignature(); sig != "tail" {
			t.Errorf("cursor landed at %q", sig)
		}
	})
}
