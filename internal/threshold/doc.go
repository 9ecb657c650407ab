// Package threshold picks a global binarization level for a grayscale buffer
// using the ISODATA (iterative intermeans) method and applies it.
//
// # Algorithm
//
//  1. Histogram: samples are scaled from [min, max] onto Bins bins. The
//     maximum sample always lands in the last bin.
//  2. Mode capping: when the most populated bin holds more than twice the
//     second most populated bin, it is capped at 1.5× that second count so a
//     background spike cannot drag the split point.
//  3. ISODATA: the first and last bins are zeroed, then a split index k moves
//     up from the lowest populated bin until k+1 exceeds the average of the
//     mean bin index below and above the split.
//  4. Level: the rounded split index is mapped back into sample space and
//     samples strictly above it become 1, the rest 0.
//
// ISODATA is a pure function of its histogram: identical histograms always
// produce identical split indices. A histogram whose remaining mass sits in a
// single bin falls back to the midpoint index.
package threshold
