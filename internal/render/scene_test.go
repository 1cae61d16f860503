package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notecanvas/internal/element"
	"notecanvas/pkg/colorutil"
	"notecanvas/pkg/geometry"
)

func pixel(t *testing.T, f Frame, x, y int) color.RGBA {
	t.Helper()
	img := NewEngine(DarkTheme(), nil).Render(f)
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestRenderBackground(t *testing.T) {
	f := Frame{Width: 50, Height: 50, Scale: 1}
	assert.Equal(t, DarkTheme().Background, pixel(t, f, 0, 0))
	assert.Equal(t, DarkTheme().Background, pixel(t, f, 49, 49))
}

func TestRenderFilledRectangle(t *testing.T) {
	f := Frame{
		Width: 100, Height: 100, Scale: 1,
		Elements: []element.Element{{
			ID: 1, Type: element.TypeRectangle,
			X: 20, Y: 20, Width: 40, Height: 40,
			StrokeColor: "red", FillColor: "red",
		}},
	}
	want := colorutil.Resolve("red", colorutil.VariantDark)
	assert.Equal(t, want, pixel(t, f, 40, 40))
	assert.Equal(t, DarkTheme().Background, pixel(t, f, 5, 5))
}

func TestRenderFilledCircleLeavesCorners(t *testing.T) {
	f := Frame{
		Width: 100, Height: 100, Scale: 1,
		Elements: []element.Element{{
			ID: 1, Type: element.TypeCircle,
			X: 10, Y: 10, Width: 80, Height: 80,
			StrokeColor: "blue", FillColor: "blue",
		}},
	}
	want := colorutil.Resolve("blue", colorutil.VariantDark)
	assert.Equal(t, want, pixel(t, f, 50, 50))
	// The bounding box corner is outside the ellipse.
	assert.Equal(t, DarkTheme().Background, pixel(t, f, 12, 12))
}

func TestRenderFreehandStroke(t *testing.T) {
	f := Frame{
		Width: 100, Height: 100, Scale: 1,
		Elements: []element.Element{{
			ID: 1, Type: element.TypeFreehand,
			X: 10, Y: 6, Width: 44, Height: 8,
			PathData:    "M 0 4 L 40 4",
			StrokeColor: "green", StrokeWidth: 4,
		}},
	}
	want := colorutil.Resolve("green", colorutil.VariantDark)
	assert.Equal(t, want, pixel(t, f, 30, 10))
}

func TestRenderScaleDoublesCoordinates(t *testing.T) {
	f := Frame{
		Width: 200, Height: 200, Scale: 2,
		Elements: []element.Element{{
			ID: 1, Type: element.TypeRectangle,
			X: 10, Y: 10, Width: 20, Height: 20,
			StrokeColor: "red", FillColor: "red",
		}},
	}
	want := colorutil.Resolve("red", colorutil.VariantDark)
	assert.Equal(t, want, pixel(t, f, 40, 40))
	// Canvas (40, 40) maps to screen (80, 80), outside the shape.
	assert.Equal(t, DarkTheme().Background, pixel(t, f, 90, 90))
}

func TestRenderGridLines(t *testing.T) {
	f := Frame{Width: 100, Height: 100, Scale: 1, ShowGrid: true, GridSize: 20}
	assert.NotEqual(t, DarkTheme().Background, pixel(t, f, 20, 5))
	assert.Equal(t, DarkTheme().Background, pixel(t, f, 10, 5))
}

func TestRenderSelectionHandles(t *testing.T) {
	el := element.Element{
		ID: 1, Type: element.TypeRectangle,
		X: 30, Y: 30, Width: 40, Height: 40,
		StrokeColor: "gray",
	}
	f := Frame{
		Width: 120, Height: 120, Scale: 1,
		Elements:    []element.Element{el},
		Selected:    map[int64]bool{1: true},
		ShowHandles: true,
	}
	// The NW handle is centered on the expanded bounds corner.
	assert.Equal(t, DarkTheme().Handle, pixel(t, f, 28, 28))

	f.ShowHandles = false
	assert.Equal(t, DarkTheme().Background, pixel(t, f, 25, 25))
}

func TestRenderMarqueeTint(t *testing.T) {
	r := geometry.NewRect(10, 10, 60, 60)
	f := Frame{Width: 100, Height: 100, Scale: 1, Marquee: &r}
	assert.NotEqual(t, DarkTheme().Background, pixel(t, f, 40, 40))
}

func TestRenderImagePlaceholder(t *testing.T) {
	f := Frame{
		Width: 100, Height: 100, Scale: 1,
		Elements: []element.Element{{
			ID: 1, Type: element.TypeImage,
			X: 10, Y: 10, Width: 60, Height: 60,
			ImageURL: "/media/missing.png",
		}},
	}
	// The placeholder cross passes through the center.
	assert.NotEqual(t, DarkTheme().Background, pixel(t, f, 40, 40))
}

func TestFontCacheReusesFaces(t *testing.T) {
	fc := NewFontCache()
	_, err := fc.Face(14)
	require.NoError(t, err)
	_, err = fc.Face(14)
	require.NoError(t, err)
	_, err = fc.Face(18)
	require.NoError(t, err)
	assert.Len(t, fc.faces, 2)
}
