package align

import (
	"svgalign/utils/debug"
)

// String returns readable dump of all decisions made during the walk. It
// exists solely for the debug report.
func (r *Result) String() string {
	if r == nil {
		return "<nil Result>"
	}

	tw := debug.NewTreeWriter()
	tw.Line(0, "Alignment targets: %d, runs aligned: %d, runs skipped: %d", r.Targets, r.Applied(), r.Skipped())
	for _, ch := range r.Changes {
		tw.Line(1, "Run %s id=%q alignment=%s", ch.Path, ch.ID, ch.Alignment)
		if ch.Skipped != "" {
			tw.Line(2, "Skipped: %s", ch.Skipped)
			continue
		}
		tw.TextBlock(2, "Text", ch.Text)
		tw.Line(2, "Font size: %g, width: %g", ch.FontSize, ch.Width)
		tw.Change(2, "x", ch.OldX, ch.NewX)
		tw.Change(2, "anchor", "", ch.Alignment.Anchor())
		if ch.StyleRemoved {
			tw.Change(2, "style", preserveWhitespace, "")
		}
	}
	return tw.String()
}
