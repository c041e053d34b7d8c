package psd

import (
	"fmt"
	"image"
)

// compositeChannel writes one decoded channel plane into its byte lane
// of the destination raster. Each channel touches a disjoint lane, so
// channels may be composited in any order.
func compositeChannel(img *image.NRGBA, plane []byte, channelID int) error {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	if len(plane) < width*height {
		return fmt.Errorf("channel %d plane %d bytes for %dx%d: %w",
			channelID, len(plane), width, height, ErrPlaneSizeMismatch)
	}

	var lane int
	switch channelID {
	case ChannelAlpha:
		lane = 3
	case ChannelRed:
		lane = 0
	case ChannelGreen:
		lane = 1
	case ChannelBlue:
		lane = 2
	default:
		return fmt.Errorf("channel id %d: %w", channelID, ErrUnknownChannel)
	}

	for y := 0; y < height; y++ {
		src := plane[y*width : (y+1)*width]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			dst[x*4+lane] = src[x]
		}
	}
	return nil
}
