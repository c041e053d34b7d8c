package psd

import (
	"encoding/binary"
	"fmt"
)

// decodeRLE decompresses one PackBits-compressed channel plane. The
// compressed stream starts with height 16-bit scanline byte lengths,
// followed by each scanline's packed data. The result is exactly
// width*height bytes, scanlines top to bottom.
//
// Runs never cross a scanline boundary; a run that would write past the
// scanline width means a corrupt or adversarial length table and fails
// the decode.
func decodeRLE(compressed []byte, width, height int) ([]byte, error) {
	if len(compressed) < 2*height {
		return nil, fmt.Errorf("rle length table needs %d bytes, have %d: %w",
			2*height, len(compressed), ErrDecodeFailed)
	}
	lengths := make([]int, height)
	for y := 0; y < height; y++ {
		lengths[y] = int(binary.BigEndian.Uint16(compressed[2*y:]))
	}

	plane := make([]byte, width*height)
	pos := 2 * height
	for y := 0; y < height; y++ {
		row := plane[y*width : (y+1)*width]
		end := pos + lengths[y]
		if end > len(compressed) {
			return nil, fmt.Errorf("rle scanline %d overruns compressed data: %w", y, ErrDecodeFailed)
		}
		x := 0
		for pos < end {
			control := int(int8(compressed[pos]))
			pos++
			switch {
			case control == -128:
				// no-op per PackBits convention
			case control < 0:
				repeat := 1 - control
				if pos >= end {
					return nil, fmt.Errorf("rle scanline %d truncated run: %w", y, ErrDecodeFailed)
				}
				if x+repeat > width {
					return nil, fmt.Errorf("rle scanline %d run of %d past width %d: %w",
						y, repeat, width, ErrDecodeFailed)
				}
				b := compressed[pos]
				pos++
				for j := 0; j < repeat; j++ {
					row[x] = b
					x++
				}
			default:
				literal := control + 1
				if pos+literal > end {
					return nil, fmt.Errorf("rle scanline %d truncated literal: %w", y, ErrDecodeFailed)
				}
				if x+literal > width {
					return nil, fmt.Errorf("rle scanline %d literal of %d past width %d: %w",
						y, literal, width, ErrDecodeFailed)
				}
				copy(row[x:], compressed[pos:pos+literal])
				pos += literal
				x += literal
			}
		}
	}

	return plane, nil
}

// encodeRLE is the reference PackBits encoder matching decodeRLE: a
// 16-bit scanline length table followed by packed scanlines. Runs of 2+
// identical bytes become repeat packets, everything else literal
// packets, both capped at 128 bytes.
func encodeRLE(plane []byte, width, height int) []byte {
	table := make([]byte, 2*height)
	var body []byte

	for y := 0; y < height; y++ {
		row := plane[y*width : (y+1)*width]
		start := len(body)
		x := 0
		for x < width {
			run := 1
			for x+run < width && run < 128 && row[x+run] == row[x] {
				run++
			}
			if run >= 2 {
				body = append(body, byte(int8(1-run)), row[x])
				x += run
				continue
			}
			// Literal packet: extend until the next run of 2+ or cap.
			lit := 1
			for x+lit < width && lit < 128 {
				if x+lit+1 < width && row[x+lit] == row[x+lit+1] {
					break
				}
				lit++
			}
			body = append(body, byte(lit-1))
			body = append(body, row[x:x+lit]...)
			x += lit
		}
		binary.BigEndian.PutUint16(table[2*y:], uint16(len(body)-start))
	}

	return append(table, body...)
}
