package orientation

import "github.com/menta2k/parity-decoder/pkg/bmff"

// Decision is the outcome of reconciling the orientation signals for
// one image.
type Decision int

const (
	// Identity means the image is already upright; nothing to apply.
	Identity Decision = iota
	// AutoExifApplied means the baseline EXIF auto-correction fully
	// resolved orientation; the hint must not be applied on top.
	AutoExifApplied
	// ManualTransform means the original-orientation hint should be
	// applied manually.
	ManualTransform
	// Suppressed means the hint was valid but the container already
	// bakes the transform into its primary item, so applying the hint
	// would double-rotate.
	Suppressed
)

func (d Decision) String() string {
	switch d {
	case Identity:
		return "identity"
	case AutoExifApplied:
		return "auto-exif"
	case ManualTransform:
		return "manual"
	case Suppressed:
		return "suppressed"
	}
	return "unknown"
}

// Resolution pairs a Decision with the transform to apply when the
// decision is ManualTransform.
type Resolution struct {
	Decision  Decision
	Transform Orientation
}

// Resolve reconciles the EXIF orientation, the decoder-preserved
// original-orientation hint and, when needed, the HEIF primary-item
// transform flag into one decision.
//
// Precedence: a non-identity EXIF orientation wins outright (the
// baseline auto-correction already handled it). Only when EXIF says
// upright does the hint become a candidate, and only for HEIF-family
// sources is the container re-parsed to veto it. rawBytes is invoked at
// most once, and only on that last path; read failures degrade to "no
// transform found" so the manual transform still applies.
func Resolve(exifOrientation, originalOrientation Orientation, isHeifFamily bool, rawBytes func() ([]byte, error)) Resolution {
	if exifOrientation.Valid() && exifOrientation != Normal {
		return Resolution{Decision: AutoExifApplied}
	}
	if !originalOrientation.Valid() || originalOrientation == Normal {
		return Resolution{Decision: Identity}
	}
	if isHeifFamily && containerHasPrimaryTransform(rawBytes) {
		return Resolution{Decision: Suppressed}
	}
	return Resolution{Decision: ManualTransform, Transform: originalOrientation}
}

func containerHasPrimaryTransform(rawBytes func() ([]byte, error)) bool {
	if rawBytes == nil {
		return false
	}
	data, err := rawBytes()
	if err != nil {
		return false
	}
	return bmff.HasPrimaryItemOrientationTransform(data)
}
