package align

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// preserveWhitespace is the exact style value upstream tools put on every text
// element. It conflicts with re-anchored runs and is dropped.
const preserveWhitespace = "white-space: pre"

// SkipReason explains why a run was left untouched.
type SkipReason string

const (
	SkipNoChildren   SkipReason = "run element has no children"
	SkipManyChildren SkipReason = "run element has more than one child"
	SkipNotText      SkipReason = "run element has non-text child"
)

// Change records a single resolved (or skipped) run.
type Change struct {
	Path         string
	ID           string
	Alignment    Alignment
	Text         string
	FontSize     float32
	Width        float32
	OldX         string
	NewX         string
	StyleRemoved bool
	Skipped      SkipReason
}

// resolve re-anchors one run of alignment bearing text element. Structural
// problems with the run are reported in Change.Skipped and leave the tree
// unmodified, malformed numerals are returned as errors.
func (a *Aligner) resolve(text, run *etree.Element, id string, align Alignment) (Change, error) {
	ch := Change{Path: run.GetPath(), ID: id, Alignment: align}

	switch len(run.Child) {
	case 0:
		ch.Skipped = SkipNoChildren
		return ch, nil
	case 1:
	default:
		ch.Skipped = SkipManyChildren
		return ch, nil
	}
	data, ok := run.Child[0].(*etree.CharData)
	if !ok {
		ch.Skipped = SkipNotText
		return ch, nil
	}
	ch.Text = data.Data

	ch.FontSize = a.fontSize
	if fs := findAttr(text, "font-size"); fs != nil {
		size, err := parseNumeral(fs.Key, fs.Value, text.GetPath())
		if err != nil {
			return ch, err
		}
		ch.FontSize = size
	}

	width, err := a.measurer.Measure(ch.Text, ch.FontSize)
	if err != nil {
		return ch, err
	}
	ch.Width = width

	if x := findAttr(run, "x"); x != nil {
		x0, err := parseNumeral(x.Key, x.Value, ch.Path)
		if err != nil {
			return ch, err
		}
		ch.OldX = x.Value
		x.Value = formatNumeral(x0 + align.Offset(width))
		ch.NewX = x.Value
	}

	setAttr(run, a.anchorAttr, align.Anchor())

	if i := attrIndex(text, "style"); i >= 0 && text.Attr[i].Value == preserveWhitespace {
		removeAttr(text, i)
		ch.StyleRemoved = true
	}

	a.log.Debug("Text run aligned",
		zap.String("path", ch.Path),
		zap.String("id", id),
		zap.Stringer("alignment", align),
		zap.Float32("font-size", ch.FontSize),
		zap.Float32("width", width),
		zap.String("x", ch.OldX),
		zap.String("new-x", ch.NewX))
	return ch, nil
}
