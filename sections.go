package psd

import "fmt"

// Channel identifiers used by layer channel descriptors. Negative ids
// are alpha/mask channels, non-negative ids are color channels in
// mode-specific order (RGB: 0=red 1=green 2=blue).
const (
	ChannelAlpha = -1
	ChannelRed   = 0
	ChannelGreen = 1
	ChannelBlue  = 2
)

// Fixed layouts, in bytes.
const (
	channelInfoSize         = 6  // int16 id + uint32 data length
	globalMaskFieldsSize    = 13 // overlay color space .. kind
	additionalBlockOverhead = 12 // signature + key + length
)

// ChannelInfo describes one stored channel plane of a layer: its
// identifier and its compressed byte length on disk (including the
// 2-byte compression mode field).
type ChannelInfo struct {
	ID     int16
	Length uint32
}

// LayerRecord is the parsed per-layer metadata record from the Layer
// Info section. Channel planes themselves are stored later in the
// stream and decoded separately.
type LayerRecord struct {
	Top    int32
	Left   int32
	Bottom int32
	Right  int32

	// Channels in storage order, which is not necessarily id order.
	Channels []ChannelInfo

	// SignatureValid reports whether the record's 8BIM signature
	// matched. When it did not, BlendMode and the fields after it are
	// left at their zero values; the rectangle and channel descriptors
	// above are still valid and the cursor position is still correct.
	SignatureValid bool

	BlendMode   string // 4-char blend mode key, e.g. "norm"
	Opacity     uint8  // 0 transparent, 255 opaque
	Clipping    uint8  // 0 base, 1 non-base
	Flags       uint8
	ExtraLength uint32 // extra data field this decoder skips
}

// Width returns the layer's pixel width.
func (r *LayerRecord) Width() int { return int(r.Right) - int(r.Left) }

// Height returns the layer's pixel height.
func (r *LayerRecord) Height() int { return int(r.Bottom) - int(r.Top) }

// GlobalLayerMaskInfo is the optional section between the layer channel
// data and the trailing additional info blocks. A zero Length means the
// section is absent beyond its own length field.
type GlobalLayerMaskInfo struct {
	Length            uint32
	OverlayColorSpace uint16
	Color             [4]uint16
	Opacity           uint16 // 0 transparent, 100 opaque
	Kind              uint8
}

// parseSkippedSection handles the two variable-length sections whose
// content this decoder does not interpret (color mode data, image
// resources): read the 4-byte length, then advance past exactly that
// many bytes so every later offset stays correct.
func parseSkippedSection(c *cursor, name string) (uint32, error) {
	length, err := c.readUint32()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if err := c.skip(int(length)); err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return length, nil
}

// parseLayerInfoHeader reads the Layer Info section's length and its
// signed layer count. A negative count has the magnitude of the actual
// record count and additionally flags that the first alpha channel
// carries the merged result's transparency.
func parseLayerInfoHeader(c *cursor) (length uint32, count int16, err error) {
	if length, err = c.readUint32(); err != nil {
		return 0, 0, fmt.Errorf("layer info: %w", err)
	}
	if count, err = c.readInt16(); err != nil {
		return 0, 0, fmt.Errorf("layer info: %w", err)
	}
	return length, count, nil
}

// parseLayerRecord reads one layer record. On a bad section signature
// the rectangle and channel descriptors have already been consumed, so
// the cursor offset remains correct, but the blend mode and the fields
// after it are not read and stay zero.
func parseLayerRecord(c *cursor) (LayerRecord, error) {
	var r LayerRecord
	var err error

	if r.Top, err = c.readInt32(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if r.Left, err = c.readInt32(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if r.Bottom, err = c.readInt32(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if r.Right, err = c.readInt32(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if r.Width() < 0 || r.Height() < 0 {
		return r, fmt.Errorf("layer record bounds %dx%d: %w", r.Width(), r.Height(), ErrInvalidLayerBounds)
	}

	channels, err := c.readUint16()
	if err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	r.Channels = make([]ChannelInfo, 0, channels)
	for i := 0; i < int(channels); i++ {
		var info ChannelInfo
		if info.ID, err = c.readInt16(); err != nil {
			return r, fmt.Errorf("layer record channel %d: %w", i, err)
		}
		if info.Length, err = c.readUint32(); err != nil {
			return r, fmt.Errorf("layer record channel %d: %w", i, err)
		}
		r.Channels = append(r.Channels, info)
	}

	sig, err := c.readSignature()
	if err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if sig != sig8BIM {
		return r, nil
	}
	r.SignatureValid = true

	if r.BlendMode, err = c.readSignature(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if r.Opacity, err = c.readUint8(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if r.Clipping, err = c.readUint8(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if r.Flags, err = c.readUint8(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	// filler byte
	if _, err = c.readUint8(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}
	if r.ExtraLength, err = c.readUint32(); err != nil {
		return r, fmt.Errorf("layer record: %w", err)
	}

	return r, nil
}

// parseGlobalLayerMaskInfo reads the global layer mask section. Recent
// producers write it with length zero; older ones write the fixed
// fields plus zero filler up to the declared length.
func parseGlobalLayerMaskInfo(c *cursor) (GlobalLayerMaskInfo, error) {
	var g GlobalLayerMaskInfo
	var err error

	if g.Length, err = c.readUint32(); err != nil {
		return g, fmt.Errorf("global layer mask info: %w", err)
	}
	if g.Length == 0 {
		return g, nil
	}
	if g.Length < globalMaskFieldsSize {
		// Shorter than the fixed fields; treat the content as opaque.
		if err = c.skip(int(g.Length)); err != nil {
			return g, fmt.Errorf("global layer mask info: %w", err)
		}
		return g, nil
	}

	if g.OverlayColorSpace, err = c.readUint16(); err != nil {
		return g, fmt.Errorf("global layer mask info: %w", err)
	}
	for i := range g.Color {
		if g.Color[i], err = c.readUint16(); err != nil {
			return g, fmt.Errorf("global layer mask info: %w", err)
		}
	}
	if g.Opacity, err = c.readUint16(); err != nil {
		return g, fmt.Errorf("global layer mask info: %w", err)
	}
	if g.Kind, err = c.readUint8(); err != nil {
		return g, fmt.Errorf("global layer mask info: %w", err)
	}
	if err = c.skip(int(g.Length) - globalMaskFieldsSize); err != nil {
		return g, fmt.Errorf("global layer mask info: %w", err)
	}

	return g, nil
}
