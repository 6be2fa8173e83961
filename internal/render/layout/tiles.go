package layout

import "math"

// MaxOffsetTiles bounds how many side-by-side animations offset mode emits.
const MaxOffsetTiles = 12

// Tile is one canvas-sized window onto the master scroll.
type Tile struct {
	Index             int
	HorizontalShiftPx int
}

// Split partitions a scroll into tiles. Without offset mode there is exactly
// one unshifted tile; with it, min(MaxOffsetTiles, ceil(raw/canvas)) tiles
// (never fewer than one), each shifted right by Index*canvasSize.
func Split(rawTextWidthPx float64, canvasSize int, offsetMode bool) []Tile {
	n := TileCount(rawTextWidthPx, canvasSize, offsetMode)
	tiles := make([]Tile, n)
	for i := range tiles {
		tiles[i] = Tile{Index: i, HorizontalShiftPx: i * canvasSize}
	}
	return tiles
}

// TileCount is the number of tiles Split returns.
func TileCount(rawTextWidthPx float64, canvasSize int, offsetMode bool) int {
	if !offsetMode || canvasSize <= 0 || rawTextWidthPx <= 0 || math.IsNaN(rawTextWidthPx) {
		return 1
	}
	n := int(math.Ceil(rawTextWidthPx / float64(canvasSize)))
	if n > MaxOffsetTiles {
		n = MaxOffsetTiles
	}
	if n < 1 {
		n = 1
	}
	return n
}
