package detection

import "image"

// Bounds is a rectangle in pixel coordinates. (X1, Y1) is the top-left
// corner (inclusive) and (X2, Y2) the bottom-right corner (exclusive).
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Rect converts b to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Point is a pixel coordinate with the origin at the top-left.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}
