package threshold

import (
	"math"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// Bins is the histogram resolution used by Level and Auto.
const Bins = 256

// Histogram counts the samples of b after scaling [min, max] onto bins
// buckets. A sample equal to the maximum always goes to the last bucket, so a
// flat buffer puts its whole mass there.
func Histogram[T pixbuf.Sample](b *pixbuf.Buffer[T], bins int) []int {
	hist := make([]int, bins)
	if bins == 0 || b.Len() == 0 {
		return hist
	}
	lo, hi := b.MinMax()
	scale := float64(bins) / (float64(hi) - float64(lo))
	for i := 0; i < b.Len(); i++ {
		v := b.Index(i)
		if v == hi {
			hist[bins-1]++
			continue
		}
		idx := int((float64(v) - float64(lo)) * scale)
		if idx >= bins {
			idx = bins - 1
		}
		hist[idx]++
	}
	return hist
}

// ISODATA returns the split bin index for hist.
//
// The input slice is not modified. An empty histogram, or one whose mass
// collapses to a single interior bin once the end bins are discarded, yields
// len(hist)/2.
func ISODATA(hist []int) int {
	data := make([]int, len(hist))
	copy(data, hist)
	capMode(data)
	return isodata(data)
}

// capMode limits a dominant bin to 1.5× the second highest count.
func capMode(data []int) {
	mode, maxCount := 0, 0
	for i, c := range data {
		if c > maxCount {
			maxCount = c
			mode = i
		}
	}
	maxCount2 := 0
	for i, c := range data {
		if c > maxCount2 && i != mode {
			maxCount2 = c
		}
	}
	if maxCount > 2*maxCount2 && maxCount2 != 0 {
		data[mode] = int(float64(maxCount2) * 1.5)
	}
}

// isodata runs the intermeans iteration. It zeroes the end bins of data.
func isodata(data []int) int {
	n := len(data)
	if n < 3 {
		return n / 2
	}
	data[0] = 0
	data[n-1] = 0

	lo := 0
	for data[lo] == 0 && lo < n-1 {
		lo++
	}
	hi := n - 1
	for data[hi] == 0 && hi > 0 {
		hi--
	}
	if lo >= hi {
		return n / 2
	}

	var result float64
	moving := lo
	for {
		var sum1, sum2, sum3, sum4 float64
		for i := lo; i <= moving; i++ {
			sum1 += float64(i * data[i])
			sum2 += float64(data[i])
		}
		for i := moving + 1; i <= hi; i++ {
			sum3 += float64(i * data[i])
			sum4 += float64(data[i])
		}
		result = (sum1/sum2 + sum3/sum4) / 2
		moving++
		if !(float64(moving+1) <= result && moving < hi-1) {
			break
		}
	}
	return int(math.Round(result))
}

// Level computes the ISODATA level of b in sample units.
//
// The split index is mapped back as min + idx·(max−min)/(Bins−1), so a buffer
// spanning exactly [0, 255] gets the bin index itself as its level.
func Level[T pixbuf.Sample](b *pixbuf.Buffer[T]) T {
	idx := ISODATA(Histogram(b, Bins))
	lo, hi := b.MinMax()
	return T(float64(lo) + float64(idx)*(float64(hi)-float64(lo))/float64(Bins-1))
}

// AutoInPlace binarizes b at its ISODATA level and returns the level used.
func AutoInPlace[T pixbuf.Sample](b *pixbuf.Buffer[T]) T {
	level := Level(b)
	b.Threshold(level)
	return level
}

// Auto returns a binarized copy of b and the level used. b is unchanged.
func Auto[T pixbuf.Sample](b *pixbuf.Buffer[T]) (*pixbuf.Buffer[T], T) {
	out := b.Clone()
	level := AutoInPlace(out)
	return out, level
}

// ClampBelow is the unsigned-clamp binarization variant: samples at or below
// level are raised to level, samples above are kept. It suits 8-bit buffers
// where a 0/1 result would lose the ink intensity.
func ClampBelow[T pixbuf.Sample](b *pixbuf.Buffer[T], level T) {
	b.Apply(func(v T) T {
		if v <= level {
			return level
		}
		return v
	})
}
