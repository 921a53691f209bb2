package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// MatchOptions controls multi-scale template matching.
type MatchOptions struct {
	// MinScale and MaxScale bound the template resize factors, inclusive.
	MinScale float64 `json:"min_scale"`
	MaxScale float64 `json:"max_scale"`

	// Steps is the number of evenly spaced scales tried, in ascending order.
	Steps int `json:"steps"`

	// Threshold is the lowest correlation score accepted as a match.
	Threshold float64 `json:"threshold"`

	// PyramidMinSide enables a coarse-to-fine search, halving until the
	// template's shorter side would drop below this many pixels. Zero, the
	// default, evaluates every position at full resolution.
	PyramidMinSide int `json:"pyramid_min_side"`
}

// DefaultMatchOptions returns 21 scales from 0.5x to 1.5x, a 0.2 threshold and
// an exhaustive search.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		MinScale:  0.5,
		MaxScale:  1.5,
		Steps:     21,
		Threshold: 0.2,
	}
}

// Validate checks the option ranges.
func (o MatchOptions) Validate() error {
	if o.MinScale <= 0 {
		return fmt.Errorf("min_scale must be > 0, got %g", o.MinScale)
	}
	if o.MaxScale < o.MinScale {
		return fmt.Errorf("max_scale %g is less than min_scale %g", o.MaxScale, o.MinScale)
	}
	if o.Steps < 1 {
		return fmt.Errorf("steps must be >= 1, got %d", o.Steps)
	}
	if o.Threshold < -1 || o.Threshold > 1 {
		return fmt.Errorf("threshold must be in [-1, 1], got %g", o.Threshold)
	}
	if o.PyramidMinSide < 0 {
		return fmt.Errorf("pyramid_min_side must be >= 0, got %d", o.PyramidMinSide)
	}
	return nil
}

// Scales returns the resize factors in iteration order.
func (o MatchOptions) Scales() []float64 {
	if o.Steps <= 1 {
		return []float64{o.MinScale}
	}
	out := make([]float64, o.Steps)
	step := (o.MaxScale - o.MinScale) / float64(o.Steps-1)
	for i := range out {
		out[i] = o.MinScale + float64(i)*step
	}
	out[len(out)-1] = o.MaxScale
	return out
}

// MatchResult is the best template placement found in a target image.
type MatchResult struct {
	// Found is true when Score reached the threshold.
	Found bool `json:"found"`

	// Score is the normalized correlation in [-1, 1]; -1 when no scale fit.
	Score float64 `json:"score"`

	TopLeft Point   `json:"top_left"`
	Scale   float64 `json:"scale"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`

	// ScalesTried counts the scales whose resized template fit in the target.
	ScalesTried int `json:"scales_tried"`
}

// Rect returns the matched region in target coordinates relative to its origin.
func (r *MatchResult) Rect() image.Rectangle {
	return r.Bounds().Rect()
}

// Bounds returns the matched region as a Bounds.
func (r *MatchResult) Bounds() Bounds {
	return Bounds{X1: r.TopLeft.X, Y1: r.TopLeft.Y, X2: r.TopLeft.X + r.Width, Y2: r.TopLeft.Y + r.Height}
}

// MatchTemplate searches target for the best-correlated resizing of tmpl.
//
// Each scale resizes the template preserving its aspect ratio. Scales where the
// resized template does not fit inside the target are skipped. For each
// remaining scale the normalized cross-correlation surface is maximised, and the
// best result across scales wins; ties keep the earlier (smaller) scale.
//
// With PyramidMinSide set, the surface is first evaluated on downsampled
// copies and the strongest peaks are refined within a small window at each
// finer level. Levels where the template lost its fine detail are not used,
// and a refined peak that falls well short of its coarse score triggers a
// full-resolution search.
//
// A result with Found == false is not an error.
func MatchTemplate(tmpl, target image.Image, opts MatchOptions) (*MatchResult, error) {
	if tmpl == nil || target == nil {
		return nil, fmt.Errorf("match template: nil image")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("match template: %w", err)
	}

	tb, gb := tmpl.Bounds(), target.Bounds()
	if tb.Empty() || gb.Empty() {
		return nil, fmt.Errorf("match template: empty image")
	}

	pyr := newTargetPyramid(target)
	best := &MatchResult{Score: -1}
	have := false

	for _, scale := range opts.Scales() {
		w := int(math.Round(float64(tb.Dx()) * scale))
		if w < 1 {
			continue
		}
		h := int(math.Round(float64(tb.Dy()) * float64(w) / float64(tb.Dx())))
		if h < 1 {
			continue
		}
		if w > gb.Dx() || h > gb.Dy() {
			continue
		}

		scaled := tmpl
		if w != tb.Dx() || h != tb.Dy() {
			scaled = imaging.Resize(tmpl, w, h, imaging.Lanczos)
		}

		best.ScalesTried++
		score, at := pyr.search(scaled, w, h, opts.PyramidMinSide)
		if !have || score > best.Score {
			have = true
			best.Score = score
			best.TopLeft = at
			best.Scale = scale
			best.Width = w
			best.Height = h
		}
	}

	best.Found = have && best.Score >= opts.Threshold
	return best, nil
}

// LocateTable matches tmpl in target and, on success, returns the matched
// region of target. On rejection the image is nil and the result reports
// Found == false.
func LocateTable(tmpl, target image.Image, opts MatchOptions) (image.Image, *MatchResult, error) {
	res, err := MatchTemplate(tmpl, target, opts)
	if err != nil {
		return nil, nil, err
	}
	if !res.Found {
		return nil, res, nil
	}
	crop := imaging.Crop(target, res.Rect().Add(target.Bounds().Min))
	return crop, res, nil
}

// plane is a grayscale image as float64 intensities with its summed-area tables.
type plane struct {
	w, h  int
	pix   []float64
	sum   []float64
	sumSq []float64
}

func newPlane(img image.Image) *plane {
	// effect.Grayscale returns RGBA with the luminance in every channel.
	g := effect.Grayscale(img)
	b := g.Bounds()
	p := &plane{w: b.Dx(), h: b.Dy()}
	p.pix = make([]float64, p.w*p.h)
	for y := 0; y < p.h; y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		row := g.Pix[off : off+4*p.w]
		for x := 0; x < p.w; x++ {
			p.pix[y*p.w+x] = float64(row[4*x])
		}
	}
	return p
}

func (p *plane) integrate() {
	stride := p.w + 1
	p.sum = make([]float64, stride*(p.h+1))
	p.sumSq = make([]float64, stride*(p.h+1))
	for y := 0; y < p.h; y++ {
		var rowSum, rowSq float64
		for x := 0; x < p.w; x++ {
			v := p.pix[y*p.w+x]
			rowSum += v
			rowSq += v * v
			i := (y+1)*stride + x + 1
			p.sum[i] = p.sum[i-stride] + rowSum
			p.sumSq[i] = p.sumSq[i-stride] + rowSq
		}
	}
}

// window returns the sum and sum of squares of the w x h window at (x, y).
func (p *plane) window(x, y, w, h int) (float64, float64) {
	stride := p.w + 1
	a := y*stride + x
	b := a + w
	c := (y+h)*stride + x
	d := c + w
	return p.sum[d] - p.sum[b] - p.sum[c] + p.sum[a],
		p.sumSq[d] - p.sumSq[b] - p.sumSq[c] + p.sumSq[a]
}

// kernel is a template with its mean removed.
type kernel struct {
	w, h int
	dev  []float64
	ss   float64
}

func newKernel(p *plane) *kernel {
	k := &kernel{w: p.w, h: p.h, dev: make([]float64, len(p.pix))}
	var mean float64
	for _, v := range p.pix {
		mean += v
	}
	mean /= float64(len(p.pix))
	for i, v := range p.pix {
		d := v - mean
		k.dev[i] = d
		k.ss += d * d
	}
	return k
}

// ncc is the normalized correlation coefficient of k against p at (x, y).
// Flat windows or templates score 0.
func (k *kernel) ncc(p *plane, x, y int) float64 {
	var dot float64
	for ky := 0; ky < k.h; ky++ {
		trow := k.dev[ky*k.w : (ky+1)*k.w]
		off := (y+ky)*p.w + x
		irow := p.pix[off : off+k.w]
		for i, t := range trow {
			dot += t * irow[i]
		}
	}

	n := float64(k.w * k.h)
	s, s2 := p.window(x, y, k.w, k.h)
	variance := s2 - s*s/n
	if variance <= 1e-6 || k.ss <= 1e-6 {
		return 0
	}
	r := dot / math.Sqrt(variance*k.ss)
	return math.Max(-1, math.Min(1, r))
}

// targetPyramid lazily builds downsampled target planes by level.
type targetPyramid struct {
	src    image.Image
	levels map[int]*plane
}

func newTargetPyramid(target image.Image) *targetPyramid {
	return &targetPyramid{src: target, levels: make(map[int]*plane)}
}

func (tp *targetPyramid) level(k int) *plane {
	if p, ok := tp.levels[k]; ok {
		return p
	}
	img := tp.src
	if k > 0 {
		b := tp.src.Bounds()
		img = imaging.Resize(tp.src, b.Dx()>>k, b.Dy()>>k, imaging.Box)
	}
	p := newPlane(img)
	p.integrate()
	tp.levels[k] = p
	return p
}

// Pyramid tuning.
const (
	// minDetail is the share of the full-resolution template variance a
	// coarse level must keep to be searched.
	minDetail = 0.5

	// coarsePeaks is how many separated coarse maxima are refined.
	coarsePeaks = 4

	// pyramidSlack is how far the refined best may fall below the coarse
	// best before the full surface is searched instead.
	pyramidSlack = 0.1

	refineRadius = 2
)

type peak struct {
	score float64
	at    Point
}

// variance is the template's mean squared deviation per pixel.
func (k *kernel) variance() float64 {
	return k.ss / float64(k.w*k.h)
}

// search returns the best score and position of the w x h template at level 0.
func (tp *targetPyramid) search(tmpl image.Image, w, h, minSide int) (float64, Point) {
	b := tp.src.Bounds()
	levels := 0
	if minSide > 0 {
		for {
			next := levels + 1
			if min(w, h)>>next < minSide || w>>next > b.Dx()>>next || h>>next > b.Dy()>>next {
				break
			}
			levels = next
		}
	}

	kernels := make([]*kernel, levels+1)
	for k := 0; k <= levels; k++ {
		img := tmpl
		if k > 0 {
			img = imaging.Resize(tmpl, w>>k, h>>k, imaging.Box)
		}
		kernels[k] = newKernel(newPlane(img))
	}

	full := kernels[0].variance()
	for levels > 0 && kernels[levels].variance() < minDetail*full {
		levels--
	}
	if levels == 0 {
		return exhaustive(tp.level(0), kernels[0])
	}

	peaks := topPeaks(tp.level(levels), kernels[levels], coarsePeaks)
	bestScore := math.Inf(-1)
	var best Point
	for _, pk := range peaks {
		if s, at := tp.refine(kernels, levels, pk.at); s > bestScore {
			bestScore, best = s, at
		}
	}
	if bestScore < peaks[0].score-pyramidSlack {
		return exhaustive(tp.level(0), kernels[0])
	}
	return bestScore, best
}

// refine follows a coarse position down to level 0.
func (tp *targetPyramid) refine(kernels []*kernel, from int, at Point) (float64, Point) {
	bestScore := math.Inf(-1)
	bx, by := at.X, at.Y
	for k := from - 1; k >= 0; k-- {
		p := tp.level(k)
		kk := kernels[k]
		cx, cy := bx*2, by*2
		bestScore = math.Inf(-1)
		for y := max(0, cy-refineRadius); y <= min(p.h-kk.h, cy+refineRadius); y++ {
			for x := max(0, cx-refineRadius); x <= min(p.w-kk.w, cx+refineRadius); x++ {
				if s := kk.ncc(p, x, y); s > bestScore {
					bestScore, bx, by = s, x, y
				}
			}
		}
	}
	return bestScore, Point{X: bx, Y: by}
}

// exhaustive scores every position; ties keep the first in row-major order.
func exhaustive(p *plane, k *kernel) (float64, Point) {
	bestScore := math.Inf(-1)
	var bx, by int
	for y := 0; y+k.h <= p.h; y++ {
		for x := 0; x+k.w <= p.w; x++ {
			if s := k.ncc(p, x, y); s > bestScore {
				bestScore, bx, by = s, x, y
			}
		}
	}
	return bestScore, Point{X: bx, Y: by}
}

// topPeaks returns up to n of the best positions, highest first, no two
// within refineRadius of each other.
func topPeaks(p *plane, k *kernel, n int) []peak {
	peaks := make([]peak, 0, n+1)
	for y := 0; y+k.h <= p.h; y++ {
		for x := 0; x+k.w <= p.w; x++ {
			s := k.ncc(p, x, y)
			if len(peaks) == n && s <= peaks[n-1].score {
				continue
			}
			near := -1
			for i, pk := range peaks {
				if absInt(pk.at.X-x) <= refineRadius && absInt(pk.at.Y-y) <= refineRadius {
					near = i
					break
				}
			}
			if near >= 0 {
				if s <= peaks[near].score {
					continue
				}
				peaks = append(peaks[:near], peaks[near+1:]...)
			}
			i := sort.Search(len(peaks), func(i int) bool { return peaks[i].score < s })
			peaks = append(peaks, peak{})
			copy(peaks[i+1:], peaks[i:])
			peaks[i] = peak{score: s, at: Point{X: x, Y: y}}
			if len(peaks) > n {
				peaks = peaks[:n]
			}
		}
	}
	return peaks
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
