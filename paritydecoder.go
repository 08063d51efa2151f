// Package paritydecoder provides reference image decoding with
// orientation handling that is safe for HEIF-family containers.
//
// Two independent orientation signals can describe the same image: the
// classic EXIF orientation tag, and a container-native irot/imir
// transform attached to a HEIF file's primary item. Applying both
// double-rotates the image. This package decodes an image, reads both
// signals, and applies exactly one correction.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		paritydecoder "github.com/menta2k/parity-decoder"
//	)
//
//	func main() {
//		pd := paritydecoder.New()
//
//		decoded, err := pd.DecodeFile("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("Decoded: %dx%d (%s)\n", decoded.Width, decoded.Height, decoded.Decision.Decision)
//	}
//
// The package consists of three main components:
//
// 1. BMFF (pkg/bmff): walks ISO-BMFF boxes and answers whether a HEIF
// primary item carries an orientation transform
// 2. Orientation (pkg/orientation): reads EXIF orientation and resolves
// the correction policy
// 3. Decode (pkg/decode): dispatches decoding and produces upright RGB
// pixel buffers
//
// Around the core sit collaborators for model artifact fetching
// (pkg/model), embedding math (pkg/embedding), an inference-session
// boundary (pkg/client, pkg/ollama) and an HTML gallery reporter
// (pkg/report) for visually auditing decode results.
package paritydecoder

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menta2k/parity-decoder/internal/config"
	"github.com/menta2k/parity-decoder/internal/utils"
	"github.com/menta2k/parity-decoder/pkg/bmff"
	"github.com/menta2k/parity-decoder/pkg/decode"
	"github.com/menta2k/parity-decoder/pkg/orientation"
	"github.com/menta2k/parity-decoder/pkg/report"
)

// Version of the parity decoder library
const Version = "1.0.0"

// ParityDecoder provides a high-level interface for decoding images and
// reporting on their orientation handling.
type ParityDecoder struct {
	decoder *decode.Decoder
	title   string
}

// New creates a new ParityDecoder with default configuration
func New() *ParityDecoder {
	return NewWithConfig(config.Default())
}

// NewWithConfig creates a new ParityDecoder with custom configuration
func NewWithConfig(cfg *config.Config) *ParityDecoder {
	return &ParityDecoder{
		decoder: decode.NewWithConfig(decode.Config{
			HeifSupported: cfg.Decode.HeifSupported,
			AllowFallback: cfg.Decode.AllowFallback,
			MaxPixels:     cfg.Decode.MaxPixels,
		}),
		title: cfg.Report.Title,
	}
}

// DecodeFile decodes and reorients the image at path.
func (p *ParityDecoder) DecodeFile(path string) (*decode.DecodedImage, error) {
	return p.decoder.DecodeFile(path)
}

// DecodeFileWithHint decodes path with a decoder-preserved
// original-orientation hint.
func (p *ParityDecoder) DecodeFileWithHint(path string, hint orientation.Orientation) (*decode.DecodedImage, error) {
	return p.decoder.DecodeFileWithHint(path, hint)
}

// HasContainerTransform reports whether the primary item of the HEIF
// file at path carries an orientation transform. Read failures and
// malformed containers yield false.
func (p *ParityDecoder) HasContainerTransform(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bmff.HasPrimaryItemOrientationTransform(data)
}

// ProcessDirectory decodes every image under inputDir, writes the
// upright PNGs and an index.html gallery into outputDir, and returns
// the gallery records.
func (p *ParityDecoder) ProcessDirectory(inputDir, outputDir string) ([]report.Record, error) {
	files, err := utils.ListImageFiles(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found in %s", inputDir)
	}

	decodedDir := filepath.Join(outputDir, "decoded")
	if err := utils.EnsureDir(decodedDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	records := make([]report.Record, 0, len(files))
	for i, file := range files {
		decoded, err := p.DecodeFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", file, err)
		}

		stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		name := fmt.Sprintf("%03d_%s.png", i+1, utils.SanitizeFilename(stem))
		if err := imaging.Save(decoded.Image(), filepath.Join(decodedDir, name)); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", name, err)
		}

		records = append(records, report.Record{
			FileID:          stem,
			Source:          file,
			DecodedPNG:      filepath.Join("decoded", name),
			SourceSize:      fmt.Sprintf("%dx%d", decoded.SourceWidth, decoded.SourceHeight),
			DecodedSize:     fmt.Sprintf("%dx%d", decoded.Width, decoded.Height),
			ExifOrientation: orientationLabel(decoded.ExifOrientation),
			Decision:        decoded.Decision.Decision.String(),
		})
	}

	indexPath := filepath.Join(outputDir, "index.html")
	f, err := os.Create(indexPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create gallery: %w", err)
	}
	defer f.Close()
	if err := report.WriteGallery(f, p.title, records); err != nil {
		return nil, err
	}

	return records, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}

func orientationLabel(o orientation.Orientation) string {
	if !o.Valid() {
		return "none"
	}
	return strconv.Itoa(int(o))
}
