// Command psdump walks a PSD document, prints its section structure and
// per-layer metadata, and optionally extracts every decoded layer as a
// PNG file.
package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	psd "github.com/arcticwolf666/go-psd"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		extractDir string
		verbose    bool
		jobs       int
	)

	cmd := &cobra.Command{
		Use:   "psdump <file.psd>",
		Short: "Dump PSD document structure and extract layer images",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.New()
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := psd.DecodeDocumentWithOptions(f, psd.DecodeOptions{
				Log:         log,
				Concurrency: jobs,
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			dumpDocument(doc)

			if extractDir != "" {
				if err := extractLayers(log, doc, extractDir); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&extractDir, "extract-dir", "", "write each decoded layer as layerN.png into this directory")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log section offsets and channel reads")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "parallel layer decode workers (0 = all CPUs)")

	return cmd
}

func dumpDocument(doc *psd.Document) {
	h := doc.Header
	fmt.Printf("--- File Header ---\n")
	fmt.Printf("  version:    %d\n", h.Version)
	fmt.Printf("  channels:   %d\n", h.Channels)
	fmt.Printf("  size:       %dx%d\n", h.Width, h.Height)
	fmt.Printf("  depth:      %d\n", h.Depth)
	fmt.Printf("  color mode: %s\n", h.ColorMode)

	fmt.Printf("--- Sections ---\n")
	fmt.Printf("  color mode data:     %d bytes\n", doc.ColorModeDataLen)
	fmt.Printf("  image resources:     %d bytes\n", doc.ImageResourcesLen)
	fmt.Printf("  layer and mask info: %d bytes\n", doc.LayerAndMaskLen)
	fmt.Printf("  layer info:          %d bytes, %d layers (merged alpha: %v)\n",
		doc.LayerInfoLen, len(doc.Layers), doc.MergedAlpha)

	for i := range doc.Layers {
		layer := &doc.Layers[i]
		fmt.Printf("--- Layer %d ---\n", i)
		fmt.Printf("  bounds:     (%d,%d)-(%d,%d) %dx%d\n",
			layer.Left, layer.Top, layer.Right, layer.Bottom, layer.Width(), layer.Height())
		fmt.Printf("  blend mode: %q opacity %d clipping %d flags %#02x\n",
			layer.BlendMode, layer.Opacity, layer.Clipping, layer.Flags)
		for _, ch := range layer.Channels {
			fmt.Printf("  channel %2d: %d bytes\n", ch.ID, ch.Length)
		}
	}

	if doc.GlobalMask.Length != 0 {
		g := doc.GlobalMask
		fmt.Printf("--- Global Layer Mask Info ---\n")
		fmt.Printf("  overlay color space: %d\n", g.OverlayColorSpace)
		fmt.Printf("  color: %v opacity %d kind %d\n", g.Color, g.Opacity, g.Kind)
	}

	for _, b := range doc.Blocks {
		fmt.Printf("additional info block %s %q %d bytes\n", b.Signature, b.Key, b.Length)
	}
	for _, w := range doc.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}

func extractLayers(log *logrus.Logger, doc *psd.Document, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i := range doc.Layers {
		layer := &doc.Layers[i]
		if layer.Image == nil {
			log.WithField("layer", i).Info("skipping empty layer")
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("layer%d.png", i))
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := png.Encode(f, layer.Image); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"layer": i, "file": name}).Info("layer extracted")
	}
	return nil
}
