package psd

import (
	"fmt"
	"image/color"
)

// PSD section signatures
const (
	sigPSD  = "8BPS" // file header magic
	sig8BIM = "8BIM" // layer record / additional info block
	sig8B64 = "8B64" // additional info block (big data)
)

// headerVersion is the only supported file version. Version 2 (PSB) uses
// wider length fields and is out of scope.
const headerVersion = 1

// ColorMode identifies the document color mode from the file header.
type ColorMode uint16

const (
	ColorModeBitmap       ColorMode = 0
	ColorModeGrayscale    ColorMode = 1
	ColorModeIndexed      ColorMode = 2
	ColorModeRGB          ColorMode = 3
	ColorModeCMYK         ColorMode = 4
	ColorModeMultichannel ColorMode = 7
	ColorModeDuotone      ColorMode = 8
	ColorModeLab          ColorMode = 9
)

func (m ColorMode) String() string {
	switch m {
	case ColorModeBitmap:
		return "Bitmap"
	case ColorModeGrayscale:
		return "Grayscale"
	case ColorModeIndexed:
		return "Indexed"
	case ColorModeRGB:
		return "RGB"
	case ColorModeCMYK:
		return "CMYK"
	case ColorModeMultichannel:
		return "Multichannel"
	case ColorModeDuotone:
		return "Duotone"
	case ColorModeLab:
		return "Lab"
	default:
		return fmt.Sprintf("ColorMode(%d)", uint16(m))
	}
}

// Header is the parsed PSD file header section.
type Header struct {
	Version   uint16
	Channels  uint16 // total channels including alpha
	Height    uint32 // document height in pixels
	Width     uint32 // document width in pixels
	Depth     uint16 // bits per channel
	ColorMode ColorMode
}

// parseHeader reads the 26-byte file header. A bad magic or an
// unsupported version rejects the document outright.
func parseHeader(c *cursor) (Header, error) {
	var h Header

	sig, err := c.readSignature()
	if err != nil {
		return h, fmt.Errorf("file header: %w", err)
	}
	if sig != sigPSD {
		return h, fmt.Errorf("file header magic %q: %w", sig, ErrSignatureMismatch)
	}

	if h.Version, err = c.readUint16(); err != nil {
		return h, fmt.Errorf("file header: %w", err)
	}
	if h.Version != headerVersion {
		return h, fmt.Errorf("file header version %d: %w", h.Version, ErrUnsupportedVersion)
	}

	// 6 reserved bytes, must be skipped but carry no information.
	if err = c.skip(6); err != nil {
		return h, fmt.Errorf("file header: %w", err)
	}

	if h.Channels, err = c.readUint16(); err != nil {
		return h, fmt.Errorf("file header: %w", err)
	}
	if h.Height, err = c.readUint32(); err != nil {
		return h, fmt.Errorf("file header: %w", err)
	}
	if h.Width, err = c.readUint32(); err != nil {
		return h, fmt.Errorf("file header: %w", err)
	}
	if h.Depth, err = c.readUint16(); err != nil {
		return h, fmt.Errorf("file header: %w", err)
	}
	mode, err := c.readUint16()
	if err != nil {
		return h, fmt.Errorf("file header: %w", err)
	}
	h.ColorMode = ColorMode(mode)

	return h, nil
}

// colorModelFromHeader maps the document color mode to the model layer
// rasters are decoded into. Layer compositing always produces NRGBA;
// grayscale documents still report a gray model for DecodeConfig.
func colorModelFromHeader(h Header) color.Model {
	switch h.ColorMode {
	case ColorModeGrayscale, ColorModeBitmap, ColorModeDuotone:
		return color.GrayModel
	default:
		return color.NRGBAModel
	}
}
