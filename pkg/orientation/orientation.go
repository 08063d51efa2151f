// Package orientation resolves how a decoded image must be reoriented
// for upright display. Two independent signals can describe the same
// image: the classic EXIF orientation tag, and an original-orientation
// hint that HEIF-aware decoders preserve after normalizing EXIF to 1.
// Applying both naively double-rotates, so the resolver consults the
// container's own primary-item transform properties before trusting
// the hint.
package orientation

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Orientation is an EXIF orientation value describing the transform
// needed to present an image upright.
type Orientation int

const (
	Unspecified Orientation = 0
	Normal      Orientation = 1
	FlipH       Orientation = 2
	Rotate180   Orientation = 3
	FlipV       Orientation = 4
	Transpose   Orientation = 5
	Rotate270   Orientation = 6
	Transverse  Orientation = 7
	Rotate90    Orientation = 8
)

// Parse converts an arbitrary integer to an Orientation, treating
// anything outside 1..8 as Unspecified.
func Parse(v int) Orientation {
	if v >= 1 && v <= 8 {
		return Orientation(v)
	}
	return Unspecified
}

// Valid reports whether o is a usable 1..8 value.
func (o Orientation) Valid() bool {
	return o >= Normal && o <= Rotate90
}

// Apply physically reorients img according to o. Normal and Unspecified
// are no-ops.
func (o Orientation) Apply(img image.Image) image.Image {
	switch o {
	case FlipH:
		img = imaging.FlipH(img)
	case Rotate180:
		img = imaging.Rotate180(img)
	case FlipV:
		img = imaging.FlipV(img)
	case Transpose:
		img = imaging.Transpose(img)
	case Rotate270:
		img = imaging.Rotate270(img)
	case Transverse:
		img = imaging.Transverse(img)
	case Rotate90:
		img = imaging.Rotate90(img)
	}
	return img
}

// SwapsDimensions reports whether applying o exchanges width and height.
func (o Orientation) SwapsDimensions() bool {
	switch o {
	case Transpose, Rotate270, Transverse, Rotate90:
		return true
	}
	return false
}

// FromBytes extracts the EXIF orientation tag from raw image data.
// Missing EXIF blocks, missing tags and out-of-range values all yield
// Unspecified.
func FromBytes(data []byte) Orientation {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return Unspecified
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return Unspecified
	}
	v, err := tag.Int(0)
	if err != nil {
		return Unspecified
	}
	return Parse(v)
}
