// Package align repositions SVG text runs so that their anchor matches the
// horizontal alignment encoded in the identifier of the enclosing text
// element.
package align

import "fmt"

// Requested horizontal alignment of a text element.
type Alignment int

// Order matters, it is the order identifier suffixes are checked in.
const (
	AlignmentLeft Alignment = iota
	AlignmentCenter
	AlignmentRight
)

var alignmentNames = [...]string{
	AlignmentLeft:   "left",
	AlignmentCenter: "center",
	AlignmentRight:  "right",
}

func (x Alignment) String() string {
	if x >= 0 && int(x) < len(alignmentNames) {
		return alignmentNames[x]
	}
	return fmt.Sprintf("Alignment(%d)", int(x))
}

// Anchor returns value of the text-anchor attribute corresponding to the
// alignment.
func (x Alignment) Anchor() string {
	switch x {
	case AlignmentCenter:
		return "middle"
	case AlignmentRight:
		return "end"
	default:
		return "start"
	}
}

// Offset returns how far the left edge anchored coordinate has to move for a
// run of the given width.
func (x Alignment) Offset(width float32) float32 {
	switch x {
	case AlignmentCenter:
		return width / 2
	case AlignmentRight:
		return width
	default:
		return 0
	}
}
