package blob

import (
	"sort"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// BoundingBox is the extent and pixel count of one component.
//
// Min and Max coordinates are inclusive, so a single pixel has MinX == MaxX.
type BoundingBox struct {
	Label int `json:"label"`
	MinX  int `json:"min_x"`
	MinY  int `json:"min_y"`
	MaxX  int `json:"max_x"`
	MaxY  int `json:"max_y"`
	Count int `json:"count"`
}

// Width returns MaxX - MinX.
func (b BoundingBox) Width() int { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b BoundingBox) Height() int { return b.MaxY - b.MinY }

// AspectRatio returns Width/Height, or 0 when Height is 0.
func (b BoundingBox) AspectRatio() float64 {
	if b.Height() == 0 {
		return 0
	}
	return float64(b.Width()) / float64(b.Height())
}

// FillRatio returns Count/(Width·Height), or 0 for a degenerate box.
func (b BoundingBox) FillRatio() float64 {
	area := b.Width() * b.Height()
	if area == 0 {
		return 0
	}
	return float64(b.Count) / float64(area)
}

// Overlaps reports whether the two boxes share at least one pixel position.
func (b BoundingBox) Overlaps(o BoundingBox) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Label partitions the foreground of b into 4-connected components.
//
// Samples below 1 are background. The result is sorted by canonical label,
// which is the raster order of each component's first sample. An image with
// no foreground returns an empty slice.
func Label[T pixbuf.Sample](b *pixbuf.Buffer[T]) []BoundingBox {
	w, h := b.Width(), b.Height()
	labels := make([]int, w*h)
	sets := newDisjointSet()

	// Pass one: provisional labels from the up and left neighbours.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*w + x
			if b.Index(off) < 1 {
				continue
			}
			up, left := 0, 0
			if y > 0 {
				up = labels[off-w]
			}
			if x > 0 {
				left = labels[off-1]
			}
			switch {
			case up > 0 && left > 0:
				labels[off] = up
				if up != left {
					sets.union(up, left)
				}
			case up > 0:
				labels[off] = up
			case left > 0:
				labels[off] = left
			default:
				labels[off] = sets.add()
			}
		}
	}

	// Pass two: resolve canonical labels and accumulate bounds.
	boxes := make(map[int]*BoundingBox)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := labels[y*w+x]
			if l == 0 {
				continue
			}
			root := sets.find(l)
			box, ok := boxes[root]
			if !ok {
				boxes[root] = &BoundingBox{Label: root, MinX: x, MinY: y, MaxX: x, MaxY: y, Count: 1}
				continue
			}
			box.MinX = min(box.MinX, x)
			box.MinY = min(box.MinY, y)
			box.MaxX = max(box.MaxX, x)
			box.MaxY = max(box.MaxY, y)
			box.Count++
		}
	}

	result := make([]BoundingBox, 0, len(boxes))
	for _, box := range boxes {
		result = append(result, *box)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})
	return result
}

// disjointSet is a union-find arena over labels 1..n. The root of every class
// is its smallest member.
type disjointSet struct {
	parent []int
}

func newDisjointSet() *disjointSet {
	// Index 0 is the background label and never joins a class.
	return &disjointSet{parent: []int{0}}
}

// add mints the next label as a singleton class.
func (d *disjointSet) add() int {
	l := len(d.parent)
	d.parent = append(d.parent, l)
	return l
}

func (d *disjointSet) find(l int) int {
	root := l
	for d.parent[root] != root {
		root = d.parent[root]
	}
	for d.parent[l] != root {
		next := d.parent[l]
		d.parent[l] = root
		l = next
	}
	return root
}

func (d *disjointSet) union(a, b int) {
	ra, rb := d.find(a), d.find(b)
	switch {
	case ra < rb:
		d.parent[rb] = ra
	case rb < ra:
		d.parent[ra] = rb
	}
}
