package service

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= floatTolerance
}

// TestFitToPlaceholder_EqualAspect verifies that a source with the same
// aspect ratio as the placeholder fills it exactly with no crop
func TestFitToPlaceholder_EqualAspect(t *testing.T) {
	ph := Box{X: 100, Y: 50, W: 640, H: 360}

	fit := FitToPlaceholder(ph, 1920, 1080)

	if fit.Stretched {
		t.Fatal("equal-aspect fit should not stretch")
	}
	if !almostEqual(fit.ScaleX, 360.0/1080.0) || !almostEqual(fit.ScaleY, 360.0/1080.0) {
		t.Errorf("expected uniform scale %v, got (%v, %v)", 360.0/1080.0, fit.ScaleX, fit.ScaleY)
	}
	if fit.CropLeft != 0 || fit.CropRight != 0 || fit.CropTop != 0 || fit.CropBottom != 0 {
		t.Errorf("expected no crop, got L=%v R=%v T=%v B=%v",
			fit.CropLeft, fit.CropRight, fit.CropTop, fit.CropBottom)
	}
	if !almostEqual(fit.PositionX, 100) || !almostEqual(fit.PositionY, 50) {
		t.Errorf("expected position (100, 50), got (%v, %v)", fit.PositionX, fit.PositionY)
	}

	// Scaled width must land exactly on the placeholder width
	visualWidth := 1920 * fit.ScaleX
	if !almostEqual(visualWidth, ph.W) {
		t.Errorf("expected visual width %v, got %v", ph.W, visualWidth)
	}
}

// TestFitToPlaceholder_WiderSource verifies equal left/right crop in
// source pixels for a source wider than the placeholder
func TestFitToPlaceholder_WiderSource(t *testing.T) {
	// Square placeholder, 16:9 source
	ph := Box{X: 0, Y: 0, W: 400, H: 400}

	fit := FitToPlaceholder(ph, 1920, 1080)

	scale := 400.0 / 1080.0
	if !almostEqual(fit.ScaleX, scale) {
		t.Fatalf("expected scale %v, got %v", scale, fit.ScaleX)
	}
	if !almostEqual(fit.CropLeft, fit.CropRight) {
		t.Errorf("crop must be symmetric, got L=%v R=%v", fit.CropLeft, fit.CropRight)
	}
	if fit.CropTop != 0 || fit.CropBottom != 0 {
		t.Errorf("wider source must not crop vertically, got T=%v B=%v", fit.CropTop, fit.CropBottom)
	}

	// Visible width after crop, back in canvas units, equals the box width
	visibleWidth := (1920 - fit.CropLeft - fit.CropRight) * scale
	if !almostEqual(visibleWidth, ph.W) {
		t.Errorf("expected visible width %v, got %v", ph.W, visibleWidth)
	}
	if !almostEqual(fit.PositionX, 0) {
		t.Errorf("wider source keeps the box position, got x=%v", fit.PositionX)
	}
}

// TestFitToPlaceholder_NarrowerSource verifies horizontal centering for
// a source narrower than the placeholder
func TestFitToPlaceholder_NarrowerSource(t *testing.T) {
	// Wide placeholder, portrait source
	ph := Box{X: 200, Y: 100, W: 800, H: 400}

	fit := FitToPlaceholder(ph, 1080, 1920)

	scale := 400.0 / 1920.0
	if !almostEqual(fit.ScaleX, scale) {
		t.Fatalf("expected scale %v, got %v", scale, fit.ScaleX)
	}
	if fit.CropLeft != 0 || fit.CropRight != 0 {
		t.Errorf("narrower source must not crop, got L=%v R=%v", fit.CropLeft, fit.CropRight)
	}

	visualWidth := 1080 * scale
	expectedX := 200 + (800-visualWidth)/2
	if !almostEqual(fit.PositionX, expectedX) {
		t.Errorf("expected centered x=%v, got %v", expectedX, fit.PositionX)
	}
	if !almostEqual(fit.PositionY, 100) {
		t.Errorf("vertical position must stay at the box top, got %v", fit.PositionY)
	}
}

// TestFitToPlaceholder_AspectTolerance verifies that tiny aspect
// differences inside the epsilon are treated as equal
func TestFitToPlaceholder_AspectTolerance(t *testing.T) {
	ph := Box{X: 0, Y: 0, W: 1600, H: 900}

	// 1601x900 differs from 16:9 by well under the tolerance
	fit := FitToPlaceholder(ph, 1600.5, 900)

	if fit.CropLeft != 0 || fit.CropRight != 0 {
		t.Errorf("aspect within tolerance must not crop, got L=%v R=%v", fit.CropLeft, fit.CropRight)
	}
	if !almostEqual(fit.PositionX, 0) {
		t.Errorf("aspect within tolerance must not recenter, got x=%v", fit.PositionX)
	}
}

// TestFitToPlaceholder_UnknownIntrinsicSize verifies the stretch
// fallback when the source size cannot be determined
func TestFitToPlaceholder_UnknownIntrinsicSize(t *testing.T) {
	ph := Box{X: 10, Y: 20, W: 300, H: 200, Rotation: 15}

	for _, dims := range [][2]float64{{0, 0}, {0, 1080}, {1920, 0}, {-1, 100}} {
		fit := FitToPlaceholder(ph, dims[0], dims[1])

		if !fit.Stretched {
			t.Fatalf("size %vx%v should trigger the stretch fallback", dims[0], dims[1])
		}
		if fit.BoundsWidth != 300 || fit.BoundsHeight != 200 {
			t.Errorf("stretch bounds must match the box, got %vx%v", fit.BoundsWidth, fit.BoundsHeight)
		}
		if fit.PositionX != 10 || fit.PositionY != 20 {
			t.Errorf("stretch keeps the box position, got (%v, %v)", fit.PositionX, fit.PositionY)
		}
		if fit.Rotation != 15 {
			t.Errorf("rotation must carry through, got %v", fit.Rotation)
		}
	}
}

// TestFitToPlaceholder_RotationCarriesThrough verifies that the
// placeholder's rotation is always copied onto the fit
func TestFitToPlaceholder_RotationCarriesThrough(t *testing.T) {
	ph := Box{X: 0, Y: 0, W: 640, H: 360, Rotation: 90}

	fit := FitToPlaceholder(ph, 1920, 1080)
	if fit.Rotation != 90 {
		t.Errorf("expected rotation 90, got %v", fit.Rotation)
	}
}
