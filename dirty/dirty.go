// Package dirty plans the sub-rectangles updated by the dirty-rect strategy.
package dirty

import (
	"fmt"
	"image"
)

// Count is the number of rectangles produced by Plan.
const Count = 3

// Rect is a sub-rectangle in texel coordinates.
type Rect struct {
	X, Y int
	W, H int
}

// String returns the rectangle as (x,y wxh).
func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// Bounds returns the rectangle as an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Area returns the number of texels covered.
func (r Rect) Area() int {
	return r.W * r.H
}

// Within reports whether the rectangle lies fully inside a width x height texture.
func (r Rect) Within(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 && r.W >= 0 && r.H >= 0 &&
		r.X+r.W <= width && r.Y+r.H <= height
}

// Plan returns the three dirty rectangles for a width x height texture.
//
// Every rectangle is width/4 x height/4 (integer division), placed at
// (width/8, height/8), (width/2, height/3) and (width/3, height/2).
// The placement keeps all three inside the texture for any positive size.
func Plan(width, height int) []Rect {
	rw, rh := width/4, height/4
	return []Rect{
		{X: width / 8, Y: height / 8, W: rw, H: rh},
		{X: width / 2, Y: height / 3, W: rw, H: rh},
		{X: width / 3, Y: height / 2, W: rw, H: rh},
	}
}

// Coverage returns the fraction of a width x height texture written per pass.
// Overlapping texels are counted once per rectangle that writes them.
func Coverage(rects []Rect, width, height int) float64 {
	total := width * height
	if total <= 0 {
		return 0
	}
	sum := 0
	for _, r := range rects {
		sum += r.Area()
	}
	return float64(sum) / float64(total)
}
