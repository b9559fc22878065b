package service

import "math"

// aspectEpsilon is the tolerance below which two aspect ratios are
// treated as equal
const aspectEpsilon = 1e-3

// Box is a placeholder region in canvas coordinates
type Box struct {
	X        float64
	Y        float64
	W        float64
	H        float64
	Rotation float64
}

// Fit is the computed placement for a source inside a placeholder box
type Fit struct {
	PositionX float64
	PositionY float64
	ScaleX    float64
	ScaleY    float64

	// Crop values are in source pixel units
	CropLeft   float64
	CropRight  float64
	CropTop    float64
	CropBottom float64

	Rotation float64

	// Stretched marks the degenerate fallback where the intrinsic size
	// was unknown and the source is forced to the placeholder box
	Stretched    bool
	BoundsWidth  float64
	BoundsHeight float64
}

// FitToPlaceholder computes the transform that makes a source of
// intrinsic size mediaW x mediaH fill the placeholder box without
// distortion. Scale is height-locked, so vertical fit is always exact;
// a relatively wider source is center-cropped horizontally and a
// narrower one is letterboxed by centering.
//
// When the intrinsic size is unknown (zero or negative), the aspect
// logic is skipped entirely and the source is forced to exactly the
// placeholder box, which may stretch it.
func FitToPlaceholder(ph Box, mediaW, mediaH float64) Fit {
	if mediaW <= 0 || mediaH <= 0 {
		return Fit{
			PositionX:    ph.X,
			PositionY:    ph.Y,
			ScaleX:       1,
			ScaleY:       1,
			Rotation:     ph.Rotation,
			Stretched:    true,
			BoundsWidth:  ph.W,
			BoundsHeight: ph.H,
		}
	}

	scale := ph.H / mediaH
	fit := Fit{
		PositionX: ph.X,
		PositionY: ph.Y,
		ScaleX:    scale,
		ScaleY:    scale,
		Rotation:  ph.Rotation,
	}

	phAspect := ph.W / ph.H
	targetAspect := mediaW / mediaH

	switch {
	case math.Abs(targetAspect-phAspect) <= aspectEpsilon:
		// Equal aspect: height-locked scale fills both axes exactly

	case targetAspect > phAspect:
		// Wider: crop left and right equally, in source pixels, so the
		// visible width exactly equals the placeholder width
		visualWidth := mediaW * scale
		crop := (visualWidth - ph.W) / 2 / scale
		fit.CropLeft = crop
		fit.CropRight = crop

	default:
		// Narrower: center horizontally inside the box
		visualWidth := mediaW * scale
		fit.PositionX = ph.X + (ph.W-visualWidth)/2
	}

	return fit
}
