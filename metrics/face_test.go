package metrics

import (
	"math"
	"strings"
	"sync"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func defaultFace(t *testing.T) *Face {
	t.Helper()
	face, err := Parse(goregular.TTF, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return face
}

// advanceUnits sums glyph advances of text in font units directly from sfnt.
func advanceUnits(t *testing.T, text string) (sum, upem, height float64) {
	t.Helper()
	f, err := sfnt.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("sfnt.Parse() error = %v", err)
	}
	var buf sfnt.Buffer
	ppem := fixed.I(int(f.UnitsPerEm()))
	for _, r := range text {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil {
			t.Fatalf("GlyphIndex() error = %v", err)
		}
		adv, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			t.Fatalf("GlyphAdvance() error = %v", err)
		}
		sum += float64(adv) / 64
	}
	m, err := f.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	return sum, float64(f.UnitsPerEm()), float64(m.Ascent+m.Descent) / 64
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}

func TestParse_Defaults(t *testing.T) {
	face := defaultFace(t)

	if face.Family() == "" {
		t.Error("Family() is empty")
	}
	if _, upem, height := advanceUnits(t, ""); !almostEqual(float64(face.ScaleCorrection()), height/upem) {
		t.Errorf("ScaleCorrection() = %g, want derived %g", face.ScaleCorrection(), height/upem)
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := Parse([]byte("definitely not a font"), 0); err == nil {
		t.Error("Expected error for garbage font data")
	}
	if _, err := Parse([]byte("ttcf garbage"), 0); err == nil {
		t.Error("Expected error for garbage collection data")
	}
	if _, err := Parse(goregular.TTF, -1); err == nil {
		t.Error("Expected error for negative scale correction")
	}
}

func TestKnownScaleCorrection(t *testing.T) {
	c, ok := KnownScaleCorrection("Open Sans")
	if !ok || c != OpenSansScaleCorrection {
		t.Errorf("KnownScaleCorrection(Open Sans) = %g, %v", c, ok)
	}
	if _, ok := KnownScaleCorrection("Comic Sans"); ok {
		t.Error("Unexpected correction for unknown family")
	}
	if !almostEqual(float64(OpenSansScaleCorrection), 2789.0/2048.0) {
		t.Errorf("OpenSansScaleCorrection = %g", OpenSansScaleCorrection)
	}
}

func TestMeasure_Empty(t *testing.T) {
	face := defaultFace(t)
	for _, size := range []float32{1, 16, 72.5} {
		w, err := face.Measure("", size)
		if err != nil {
			t.Fatalf("Measure() error = %v", err)
		}
		if w != 0 {
			t.Errorf("Measure(\"\", %g) = %g, want 0", size, w)
		}
	}
}

func TestMeasure_MatchesGlyphAdvances(t *testing.T) {
	face := defaultFace(t)

	tests := []struct {
		text string
		size float32
	}{
		{"Hi", 20},
		{"OK", 16},
		{"Hello, world!", 12.5},
		{"Привет", 10},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			sum, upem, _ := advanceUnits(t, tt.text)
			want := sum * float64(tt.size) / upem

			got, err := face.Measure(tt.text, tt.size)
			if err != nil {
				t.Fatalf("Measure() error = %v", err)
			}
			if !almostEqual(float64(got), want) {
				t.Errorf("Measure(%q, %g) = %g, want %g", tt.text, tt.size, got, want)
			}
		})
	}
}

func TestMeasure_ExplicitCorrection(t *testing.T) {
	face, err := Parse(goregular.TTF, 2)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if face.ScaleCorrection() != 2 {
		t.Fatalf("ScaleCorrection() = %g, want 2", face.ScaleCorrection())
	}

	sum, _, height := advanceUnits(t, "OK")
	want := sum * 2 * 16 / height

	got, err := face.Measure("OK", 16)
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	if !almostEqual(float64(got), want) {
		t.Errorf("Measure() = %g, want %g", got, want)
	}
}

func TestMeasure_Monotonic(t *testing.T) {
	face := defaultFace(t)

	for _, glyph := range []string{"a", "W", " ", "☃"} {
		prev := float32(0)
		for n := range 25 {
			w, err := face.Measure(strings.Repeat(glyph, n), 14)
			if err != nil {
				t.Fatalf("Measure() error = %v", err)
			}
			if w < prev {
				t.Fatalf("Measure(%q x %d) = %g is smaller than %g", glyph, n, w, prev)
			}
			prev = w
		}
	}
}

func TestMeasure_Linear(t *testing.T) {
	face := defaultFace(t)

	w10, _ := face.Measure("Hi", 10)
	w20, _ := face.Measure("Hi", 20)
	if !almostEqual(float64(w20), float64(2*w10)) {
		t.Errorf("Measure() is not linear in size: %g vs 2*%g", w20, w10)
	}
}

func TestMeasure_Concurrent(t *testing.T) {
	face := defaultFace(t)

	want, err := face.Measure("concurrent text", 18)
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for range 16 {
		wg.Go(func() {
			for range 100 {
				got, err := face.Measure("concurrent text", 18)
				if err != nil || got != want {
					errs <- "unexpected measurement"
					return
				}
			}
		})
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
