// Package decode turns source image files into upright, interleaved RGB
// pixel buffers. It dispatches between the registered standard decoders
// and an explicit WebP fallback, then applies the orientation
// resolution policy so EXIF tags, decoder hints and HEIF container
// transforms are never applied twice.
package decode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/parity-decoder/pkg/orientation"
)

// Config holds configuration for the decoder.
type Config struct {
	// HeifSupported marks whether a HEIF pixel decoder was registered
	// at startup. Without it, HEIF-family files fail with a clear
	// "format unsupported" error instead of an obscure decode failure.
	HeifSupported bool
	// AllowFallback enables a second decode attempt through the raw
	// WebP path when the registered decoders reject the data.
	AllowFallback bool
	// MaxPixels rejects images whose decoded area exceeds this bound.
	// Zero disables the check.
	MaxPixels int
}

// Decoder decodes and reorients source images.
type Decoder struct {
	config Config
}

// New creates a Decoder with default configuration.
func New() *Decoder {
	return &Decoder{
		config: Config{
			AllowFallback: true,
			MaxPixels:     256_000_000,
		},
	}
}

// NewWithConfig creates a Decoder with custom configuration.
func NewWithConfig(config Config) *Decoder {
	return &Decoder{config: config}
}

// DecodedImage is an upright image as tightly packed 8-bit RGB rows,
// together with the orientation signals and decision that produced it.
type DecodedImage struct {
	Width  int
	Height int
	RGB    []uint8

	// SourceWidth and SourceHeight are the dimensions as stored,
	// before any orientation transform.
	SourceWidth     int
	SourceHeight    int
	ExifOrientation orientation.Orientation
	Decision        orientation.Resolution
}

// Image reconstructs a drawable image from the RGB buffer.
func (d *DecodedImage) Image() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, d.Width, d.Height))
	for y := 0; y < d.Height; y++ {
		src := d.RGB[y*d.Width*3:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < d.Width; x++ {
			dst[x*4+0] = src[x*3+0]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xFF
		}
	}
	return img
}

// DecodeFile reads, decodes and reorients the image at path.
func (d *Decoder) DecodeFile(path string) (*DecodedImage, error) {
	return d.DecodeFileWithHint(path, orientation.Unspecified)
}

// DecodeFileWithHint is DecodeFile for callers whose decoder preserved
// an original-orientation value after normalizing EXIF orientation
// internally. The hint participates in the resolution policy; it is
// suppressed when the container itself transforms the primary item.
func (d *Decoder) DecodeFileWithHint(path string, hint orientation.Orientation) (*DecodedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	isHeif := IsHeifFamily(path)
	if isHeif && !d.config.HeifSupported {
		return nil, fmt.Errorf("format unsupported: %s requires HEIF decode support, which is not enabled", path)
	}

	img, err := d.decodeBytes(data)
	if err != nil {
		return nil, err
	}
	if d.config.MaxPixels > 0 {
		b := img.Bounds()
		if b.Dx()*b.Dy() > d.config.MaxPixels {
			return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", b.Dx(), b.Dy(), d.config.MaxPixels)
		}
	}

	sourceBounds := img.Bounds()
	exifOrientation := orientation.FromBytes(data)

	// Baseline auto-correction, a no-op for upright images.
	img = exifOrientation.Apply(img)

	res := orientation.Resolve(exifOrientation, hint, isHeif, func() ([]byte, error) {
		return data, nil
	})
	if res.Decision == orientation.ManualTransform {
		img = res.Transform.Apply(img)
	}

	decoded := toRGB(img)
	decoded.SourceWidth = sourceBounds.Dx()
	decoded.SourceHeight = sourceBounds.Dy()
	decoded.ExifOrientation = exifOrientation
	decoded.Decision = res
	return decoded, nil
}

// decodeBytes tries the registered decoders first, then the explicit
// WebP path if fallback is allowed.
func (d *Decoder) decodeBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}

	if d.config.AllowFallback {
		if img, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("failed to decode image: %w", err)
}

func toRGB(img image.Image) *DecodedImage {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()

	rgb := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := rgb[y*w*3:]
		for x := 0; x < w; x++ {
			dst[x*3+0] = src[x*4+0]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return &DecodedImage{Width: w, Height: h, RGB: rgb}
}
