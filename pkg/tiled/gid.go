package tiled

import (
	"fmt"
	"strconv"
	"strings"
)

// GID is a global tile ID as stored in layer data and tile objects.
// The top four bits carry transform flags; the rest is the tile ID.
type GID uint32

// Flag bits of a GID.
const (
	FlagFlippedHorizontally GID = 1 << 31
	FlagFlippedVertically   GID = 1 << 30
	FlagFlippedDiagonally   GID = 1 << 29
	FlagRotatedHex120       GID = 1 << 28

	flagMask   = FlagFlippedHorizontally | FlagFlippedVertically | FlagFlippedDiagonally | FlagRotatedHex120
	tileIDMask = 0x0FFFFFFF
)

// ParseGID parses a decimal GID attribute or cell token.
func ParseGID(s string) (GID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a tile id", ErrInvalidAttribute, s)
	}
	return GID(n), nil
}

// TileID returns the GID with all flag bits cleared.
func (g GID) TileID() uint32 {
	return uint32(g) & tileIDMask
}

// Flags returns only the flag bits.
func (g GID) Flags() GID {
	return g & flagMask
}

// IsEmpty reports whether the GID refers to no tile.
func (g GID) IsEmpty() bool {
	return g.TileID() == 0
}

// FlippedHorizontally reports bit 31.
func (g GID) FlippedHorizontally() bool {
	return g&FlagFlippedHorizontally != 0
}

// FlippedVertically reports bit 30.
func (g GID) FlippedVertically() bool {
	return g&FlagFlippedVertically != 0
}

// FlippedDiagonally reports bit 29 (anti-diagonal flip, or 60° rotation on hexagonal maps).
func (g GID) FlippedDiagonally() bool {
	return g&FlagFlippedDiagonally != 0
}

// RotatedHex120 reports bit 28, only meaningful on hexagonal maps.
func (g GID) RotatedHex120() bool {
	return g&FlagRotatedHex120 != 0
}

func (g GID) String() string {
	if g.Flags() == 0 {
		return strconv.FormatUint(uint64(g), 10)
	}
	var flags []string
	if g.FlippedHorizontally() {
		flags = append(flags, "H")
	}
	if g.FlippedVertically() {
		flags = append(flags, "V")
	}
	if g.FlippedDiagonally() {
		flags = append(flags, "D")
	}
	if g.RotatedHex120() {
		flags = append(flags, "R")
	}
	return fmt.Sprintf("%d[%s]", g.TileID(), strings.Join(flags, ""))
}
