// Package psd implements a pure Go decoder for layered Photoshop (PSD)
// documents.
//
// The package walks the fixed PSD section order (file header, color mode
// data, image resources, layer and mask information) and decodes every
// layer's separately stored channel planes into interleaved RGBA rasters.
// Raw and RLE (PackBits) channel compression are supported; the zip
// variants are not.
//
// Decoding all layers:
//
//	doc, err := psd.DecodeDocument(reader)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for i, layer := range doc.Layers {
//	    fmt.Println(i, layer.Rect, layer.BlendMode)
//	}
//
// Decoding a flattened preview:
//
//	img, err := psd.Decode(reader)
//
// The package registers itself with the image package for automatic
// format detection:
//
//	import _ "github.com/arcticwolf666/go-psd"
//	img, _, err := image.Decode(reader)
package psd
