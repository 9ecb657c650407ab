// Package blob finds 4-connected foreground components in a binarized buffer.
//
// Label runs the classic two-pass algorithm. The first raster pass gives each
// foreground sample (value ≥ 1) a provisional label taken from its upper or
// left neighbour, minting a new one when neither is labeled and recording an
// equivalence when both are labeled differently. The second pass resolves
// every provisional label to the smallest label of its equivalence class and
// grows that class's bounding box.
//
// Equivalences live in a union-find arena whose root is always the minimum
// label of the class, so canonical labels follow the raster order of each
// component's first sample. Only the partition into components is
// meaningful; callers should compare boxes, not label numbers.
package blob
