// Package metrics measures rendered width of text using glyph advances of a
// single loaded font.
package metrics

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// OpenSansScaleCorrection makes nominal CSS font size of Open Sans match
// its glyph coordinate space: (ascent + descent) / units per em = 2789 / 2048.
const OpenSansScaleCorrection float32 = 1.3618165

// knownScaleCorrections are calibrated values by font family name. Fonts not
// listed here get correction derived from their own metrics.
var knownScaleCorrections = map[string]float32{
	"Open Sans": OpenSansScaleCorrection,
}

// KnownScaleCorrection returns calibrated correction for font family if we
// have one.
func KnownScaleCorrection(family string) (float32, bool) {
	c, ok := knownScaleCorrections[family]
	return c, ok
}

// Face is immutable after creation and may be shared by any number of
// goroutines.
type Face struct {
	family     string
	font       *sfnt.Font
	upem       fixed.Int26_6 // units per em as ppem, so advances come back in font units
	height     float64       // ascent + descent in font units
	correction float32
}

// Parse creates Face from TrueType/OpenType data (or the first font of a
// collection). When correction is 0 known calibrated value is used for the
// font family, or it is derived from font metrics if family is unknown.
func Parse(data []byte, correction float32) (*Face, error) {
	if correction < 0 {
		return nil, fmt.Errorf("negative scale correction %g", correction)
	}

	f, err := parseFont(data)
	if err != nil {
		return nil, err
	}

	var buf sfnt.Buffer

	face := &Face{font: f}
	face.family, _ = f.Name(&buf, sfnt.NameIDFamily)
	face.upem = fixed.I(int(f.UnitsPerEm()))

	m, err := f.Metrics(&buf, face.upem, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("unable to read font metrics: %w", err)
	}
	face.height = toFloat(m.Ascent + m.Descent)
	if face.height <= 0 {
		return nil, fmt.Errorf("font %q has invalid vertical metrics", face.family)
	}

	switch known, ok := KnownScaleCorrection(face.family); {
	case correction > 0:
		face.correction = correction
	case ok:
		face.correction = known
	default:
		face.correction = float32(face.height / toFloat(face.upem))
	}
	return face, nil
}

func parseFont(data []byte) (*sfnt.Font, error) {
	if !bytes.HasPrefix(data, []byte("ttcf")) {
		f, err := sfnt.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("unable to parse font: %w", err)
		}
		return f, nil
	}
	c, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse font collection: %w", err)
	}
	if c.NumFonts() == 0 {
		return nil, errors.New("empty font collection")
	}
	f, err := c.Font(0)
	if err != nil {
		return nil, fmt.Errorf("unable to get font from collection: %w", err)
	}
	return f, nil
}

// Family returns font family name as recorded in the font.
func (f *Face) Family() string {
	return f.family
}

// ScaleCorrection returns multiplier applied to nominal font size.
func (f *Face) ScaleCorrection() float32 {
	return f.correction
}

// Measure returns sum of horizontal advances of every glyph of text laid out
// at size * ScaleCorrection, where scale is the height from descent to ascent.
// Kerning and shaping are not applied.
func (f *Face) Measure(text string, size float32) (float32, error) {
	if len(text) == 0 {
		return 0, nil
	}

	var buf sfnt.Buffer

	scale := float64(size*f.correction) / f.height
	width := float32(0)
	for _, r := range text {
		// missing glyphs map to .notdef which still has an advance
		idx, err := f.font.GlyphIndex(&buf, r)
		if err != nil {
			return 0, fmt.Errorf("unable to map rune %q: %w", r, err)
		}
		adv, err := f.font.GlyphAdvance(&buf, idx, f.upem, font.HintingNone)
		if err != nil {
			return 0, fmt.Errorf("unable to get advance for rune %q: %w", r, err)
		}
		width += float32(toFloat(adv) * scale)
	}
	return width, nil
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
