package grid

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Spec holds fractional row and column boundaries in [0, 1].
type Spec struct {
	Rows []float64 `json:"rows"`
	Cols []float64 `json:"cols"`
}

// Validate checks that both boundary sequences have at least two entries, lie in
// [0, 1] and never decrease.
func (s Spec) Validate() error {
	if err := validateBoundaries("rows", s.Rows); err != nil {
		return err
	}
	return validateBoundaries("cols", s.Cols)
}

func validateBoundaries(name string, b []float64) error {
	if len(b) < 2 {
		return fmt.Errorf("%s: need at least 2 boundaries, got %d", name, len(b))
	}
	for i, v := range b {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s[%d] = %g outside [0, 1]", name, i, v)
		}
		if i > 0 && v < b[i-1] {
			return fmt.Errorf("%s[%d] = %g is less than %s[%d] = %g", name, i, v, name, i-1, b[i-1])
		}
	}
	return nil
}

// NumRows returns the number of cell rows s declares.
func (s Spec) NumRows() int {
	if len(s.Rows) < 2 {
		return 0
	}
	return len(s.Rows) - 1
}

// NumCols returns the number of cell columns s declares.
func (s Spec) NumCols() int {
	if len(s.Cols) < 2 {
		return 0
	}
	return len(s.Cols) - 1
}

// Rects returns the cell rectangles for a width x height image anchored at the
// origin, indexed [row][col].
func (s Spec) Rects(width, height int) [][]image.Rectangle {
	ys := pixelOffsets(s.Rows, height)
	xs := pixelOffsets(s.Cols, width)

	rects := make([][]image.Rectangle, s.NumRows())
	for i := range rects {
		rects[i] = make([]image.Rectangle, s.NumCols())
		for j := range rects[i] {
			// Built directly rather than with image.Rect, which would swap
			// reversed coordinates instead of leaving the span empty.
			rects[i][j] = image.Rectangle{
				Min: image.Point{X: xs[j], Y: ys[i]},
				Max: image.Point{X: xs[j+1], Y: ys[i+1]},
			}
		}
	}
	return rects
}

// pixelOffsets truncates each fraction times dim toward zero.
func pixelOffsets(fractions []float64, dim int) []int {
	out := make([]int, len(fractions))
	for i, f := range fractions {
		out[i] = int(f * float64(dim))
	}
	return out
}

// EvenBoundaries returns n+1 evenly spaced boundaries from 0 to 1, the starting
// point for a fresh layout with n rows or columns.
func EvenBoundaries(n int) []float64 {
	if n < 1 {
		return nil
	}
	b := make([]float64, n+1)
	for i := range b {
		b[i] = float64(i) / float64(n)
	}
	return b
}

// Cell is one grid square of a segmented table.
type Cell struct {
	Row    int             `json:"row"`
	Col    int             `json:"col"`
	Bounds image.Rectangle `json:"bounds"`
	Image  image.Image     `json:"-"`
}

// Empty reports whether the cell has zero area.
func (c *Cell) Empty() bool {
	return c.Bounds.Empty()
}

// Release drops the cell's pixel buffer once its reading has been captured.
func (c *Cell) Release() {
	c.Image = nil
}

// Grid is the result of segmenting an image with a Spec.
type Grid struct {
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Cells []Cell `json:"cells"`
}

// At returns the cell at (row, col), or nil when out of range.
func (g *Grid) At(row, col int) *Cell {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return nil
	}
	return &g.Cells[row*g.Cols+col]
}

// Release drops every cell image.
func (g *Grid) Release() {
	for i := range g.Cells {
		g.Cells[i].Release()
	}
}

// Segment cuts img into the cells described by spec. Cells are returned in
// row-major order. Cell bounds are relative to img's top-left corner; degenerate
// spans yield an empty image rather than an error.
func Segment(img image.Image, spec Spec) (*Grid, error) {
	if img == nil {
		return nil, fmt.Errorf("segment: nil image")
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}

	bounds := img.Bounds()
	rects := spec.Rects(bounds.Dx(), bounds.Dy())

	g := &Grid{
		Rows:  spec.NumRows(),
		Cols:  spec.NumCols(),
		Cells: make([]Cell, 0, spec.NumRows()*spec.NumCols()),
	}
	for i, row := range rects {
		for j, r := range row {
			cell := Cell{Row: i, Col: j, Bounds: r}
			if r.Empty() {
				cell.Image = image.NewNRGBA(image.Rectangle{})
			} else {
				cell.Image = imaging.Crop(img, r.Add(bounds.Min))
			}
			g.Cells = append(g.Cells, cell)
		}
	}
	return g, nil
}
