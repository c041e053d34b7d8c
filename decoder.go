package psd

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Channel compression modes from the per-channel image data.
const (
	compressionRaw    = 0
	compressionRLE    = 1
	compressionZip    = 2 // unsupported
	compressionZipPre = 3 // unsupported
)

// DecodeOptions controls document decoding.
type DecodeOptions struct {
	// Log receives section-level debug diagnostics and non-fatal
	// reconciliation warnings. Nil discards them.
	Log *logrus.Logger

	// Concurrency bounds the number of layers whose channel planes are
	// decompressed and composited in parallel. 0 means GOMAXPROCS.
	Concurrency int
}

// Layer is one decoded document layer: its parsed record plus the
// composited raster. Image is nil for zero-area layers.
type Layer struct {
	LayerRecord

	// Image is the interleaved RGBA raster, positioned at the layer's
	// bounding rectangle within the document.
	Image *image.NRGBA
}

// Document is a fully decoded PSD document.
type Document struct {
	Header Header

	ColorModeDataLen  uint32
	ImageResourcesLen uint32
	LayerAndMaskLen   uint32
	LayerInfoLen      uint32

	// MergedAlpha reports a negative stored layer count: the first
	// alpha channel carries the merged result's transparency.
	MergedAlpha bool

	// Layers in storage order (bottommost first).
	Layers []Layer

	GlobalMask GlobalLayerMaskInfo
	Blocks     []AdditionalInfoBlock

	// Warnings collects non-fatal reconciliation diagnostics, such as
	// declared section lengths that disagree with bytes consumed.
	// Real-world producers round these fields inconsistently.
	Warnings []string
}

var discardLog = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// decoder holds walker state for a single decode pass.
type decoder struct {
	c    *cursor
	log  *logrus.Logger
	jobs int
	doc  *Document
}

// DecodeDocument decodes a complete PSD document: header, section
// metadata, every layer's raster, and trailing additional info blocks.
func DecodeDocument(r io.Reader) (*Document, error) {
	return DecodeDocumentWithOptions(r, DecodeOptions{})
}

// DecodeDocumentWithOptions is DecodeDocument with explicit options.
func DecodeDocumentWithOptions(r io.Reader, opts DecodeOptions) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		c:    newCursor(data),
		log:  opts.Log,
		jobs: opts.Concurrency,
		doc:  &Document{},
	}
	if d.log == nil {
		d.log = discardLog
	}
	if d.jobs <= 0 {
		d.jobs = runtime.GOMAXPROCS(0)
	}

	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.doc, nil
}

func (d *decoder) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d.log.Warn(msg)
	d.doc.Warnings = append(d.doc.Warnings, msg)
}

// decode drives the cursor through the fixed section order:
// header, color mode data, image resources, layer info with its layer
// records, per-layer channel data, global layer mask info, and the
// trailing additional info block scan.
func (d *decoder) decode() error {
	c := d.c
	doc := d.doc

	d.log.WithField("offset", c.offset()).Debug("file header")
	var err error
	if doc.Header, err = parseHeader(c); err != nil {
		return err
	}

	d.log.WithField("offset", c.offset()).Debug("color mode data")
	if doc.ColorModeDataLen, err = parseSkippedSection(c, "color mode data"); err != nil {
		return err
	}

	d.log.WithField("offset", c.offset()).Debug("image resources")
	if doc.ImageResourcesLen, err = parseSkippedSection(c, "image resources"); err != nil {
		return err
	}

	d.log.WithField("offset", c.offset()).Debug("layer and mask info")
	if doc.LayerAndMaskLen, err = c.readUint32(); err != nil {
		return fmt.Errorf("layer and mask info: %w", err)
	}
	if doc.LayerAndMaskLen == 0 {
		return nil
	}

	d.log.WithField("offset", c.offset()).Debug("layer info")
	length, count, err := parseLayerInfoHeader(c)
	if err != nil {
		return err
	}
	doc.LayerInfoLen = length
	doc.MergedAlpha = count < 0
	layerCount := int(count)
	if layerCount < 0 {
		layerCount = -layerCount
	}

	// Bytes of LayerInfo consumed so far: the layer count field. Layer
	// record and extra data consumption accumulates below; channel
	// image data is accounted separately.
	consumed := int64(2)

	records := make([]LayerRecord, 0, layerCount)
	for i := 0; i < layerCount; i++ {
		start := c.offset()
		rec, err := parseLayerRecord(c)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if !rec.SignatureValid {
			d.warnf("layer %d: blend signature mismatch, record fields after channel list unset", i)
		}
		consumed += int64(c.offset() - start)

		// Per-layer extra data (masks, blending ranges, names) is not
		// decoded; the walker owns skipping it either way.
		if err := c.skip(int(rec.ExtraLength)); err != nil {
			return fmt.Errorf("layer %d extra data: %w", i, err)
		}
		consumed += int64(rec.ExtraLength)
		records = append(records, rec)
	}

	channelData, channelDataSize, err := d.readChannelData(records)
	if err != nil {
		return err
	}
	if err := d.decodeLayers(records, channelData); err != nil {
		return err
	}

	// Channel image data is padded to a 2-byte boundary.
	if channelDataSize%2 != 0 {
		if err := c.skip(1); err != nil {
			return fmt.Errorf("channel data padding: %w", err)
		}
	}

	if int64(doc.LayerInfoLen) != consumed+channelDataSize {
		d.warnf("layer info length mismatch: declared %d, consumed %d",
			doc.LayerInfoLen, consumed+channelDataSize)
	}

	remaining := int64(doc.LayerAndMaskLen) - (4 + consumed + channelDataSize)

	d.log.WithField("offset", c.offset()).Debug("global layer mask info")
	if doc.GlobalMask, err = parseGlobalLayerMaskInfo(c); err != nil {
		return err
	}
	remaining -= int64(doc.GlobalMask.Length) + 4

	if remaining < 0 {
		// Some producers under-declare the enclosing section length.
		// Report and stop scanning rather than clamping silently.
		d.warnf("layer and mask info remainder negative (%d), skipping additional info scan", remaining)
		return nil
	}
	if remaining > 0 {
		d.log.WithFields(logrus.Fields{"offset": c.offset(), "budget": remaining}).
			Debug("additional info scan")
		if doc.Blocks, err = scanAdditionalInfo(c, remaining); err != nil {
			return err
		}
	}

	return nil
}

// layerChannel is one channel's still-compressed bytes, captured during
// the sequential read so decompression can fan out across layers.
type layerChannel struct {
	info        ChannelInfo
	compression uint16
	data        []byte
}

// readChannelData consumes every layer's channel image data in storage
// order and returns it keyed by layer index, along with the total byte
// count used for padding and length reconciliation.
func (d *decoder) readChannelData(records []LayerRecord) ([][]layerChannel, int64, error) {
	c := d.c
	channels := make([][]layerChannel, len(records))
	var total int64

	for i := range records {
		rec := &records[i]
		channels[i] = make([]layerChannel, 0, len(rec.Channels))
		for _, info := range rec.Channels {
			d.log.WithFields(logrus.Fields{
				"offset": c.offset(), "layer": i, "channel": info.ID, "length": info.Length,
			}).Debug("channel data")

			if info.Length < 2 {
				return nil, 0, fmt.Errorf("layer %d channel %d data length %d: %w",
					i, info.ID, info.Length, ErrTruncated)
			}
			mode, err := c.readUint16()
			if err != nil {
				return nil, 0, fmt.Errorf("layer %d channel %d: %w", i, info.ID, err)
			}
			data, err := c.read(int(info.Length) - 2)
			if err != nil {
				return nil, 0, fmt.Errorf("layer %d channel %d: %w", i, info.ID, err)
			}
			channels[i] = append(channels[i], layerChannel{info: info, compression: mode, data: data})
			total += int64(info.Length)
		}
	}

	return channels, total, nil
}

// decodeLayers decompresses and composites every layer's channels.
// Layers are independent, so the work fans out across a bounded worker
// group; results land in index order, preserving storage order.
func (d *decoder) decodeLayers(records []LayerRecord, channels [][]layerChannel) error {
	doc := d.doc
	doc.Layers = make([]Layer, len(records))

	var g errgroup.Group
	g.SetLimit(d.jobs)
	for i := range records {
		i := i
		doc.Layers[i].LayerRecord = records[i]
		g.Go(func() error {
			layer := &doc.Layers[i]
			img, err := decodeLayerImage(layer.LayerRecord, channels[i])
			if err != nil {
				return fmt.Errorf("layer %d: %w", i, err)
			}
			layer.Image = img
			return nil
		})
	}
	return g.Wait()
}

// decodeLayerImage builds one layer's raster from its stored channel
// planes. The destination starts fully transparent black; each plane
// writes only its own byte lane.
func decodeLayerImage(rec LayerRecord, channels []layerChannel) (*image.NRGBA, error) {
	width := rec.Width()
	height := rec.Height()
	if width == 0 || height == 0 {
		return nil, nil
	}

	img := image.NewNRGBA(image.Rect(int(rec.Left), int(rec.Top), int(rec.Right), int(rec.Bottom)))
	for _, ch := range channels {
		var plane []byte
		switch ch.compression {
		case compressionRaw:
			plane = ch.data
		case compressionRLE:
			var err error
			plane, err = decodeRLE(ch.data, width, height)
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", ch.info.ID, err)
			}
		case compressionZip, compressionZipPre:
			return nil, fmt.Errorf("channel %d zip compression: %w", ch.info.ID, ErrUnsupportedCompression)
		default:
			return nil, fmt.Errorf("channel %d compression mode %d: %w",
				ch.info.ID, ch.compression, ErrUnsupportedCompression)
		}
		if err := compositeChannel(img, plane, int(ch.info.ID)); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// DecodeConfig returns the document dimensions and color model without
// decoding any layer data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	// The header is the first 26 bytes; nothing past it is needed.
	data := make([]byte, 26)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return image.Config{}, ErrTruncated
		}
		return image.Config{}, err
	}

	header, err := parseHeader(newCursor(data))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		Width:      int(header.Width),
		Height:     int(header.Height),
		ColorModel: colorModelFromHeader(header),
	}, nil
}

// Decode decodes a PSD document and flattens its layers bottom to top
// onto a transparent canvas of the document's dimensions. Layers are
// drawn with plain source-over alpha; blend modes and layer opacity are
// not applied. Use DecodeDocument for per-layer access.
func Decode(r io.Reader) (image.Image, error) {
	doc, err := DecodeDocument(r)
	if err != nil {
		return nil, err
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, int(doc.Header.Width), int(doc.Header.Height)))
	for i := range doc.Layers {
		layer := &doc.Layers[i]
		if layer.Image == nil {
			continue
		}
		bounds := layer.Image.Bounds().Intersect(canvas.Bounds())
		if bounds.Empty() {
			continue
		}
		draw.Draw(canvas, bounds, layer.Image, bounds.Min, draw.Over)
	}
	return canvas, nil
}

func init() {
	image.RegisterFormat("psd", sigPSD, Decode, DecodeConfig)
}
