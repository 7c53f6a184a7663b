package align

import "strings"

// StripSuffix removes disambiguation suffix upstream tools append to
// colliding identifiers: trailing ASCII digits and then a single underscore.
//
//	"title_left_2" -> "title_left"
//	"title_left_"  -> "title_left"
//	"title2"       -> "title"
func StripSuffix(id string) string {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i > 0 && id[i-1] == '_' {
		i--
	}
	return id[:i]
}

// Classify returns alignment encoded in the element identifier. Matching is
// exact, no case folding is performed.
func Classify(id string) (Alignment, bool) {
	stripped := StripSuffix(id)
	for i, name := range alignmentNames {
		if strings.HasSuffix(stripped, name) {
			return Alignment(i), true
		}
	}
	return AlignmentLeft, false
}
