package process

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/charmap"

	"svgalign/align"
)

func TestReadDocument(t *testing.T) {
	log := zaptest.NewLogger(t)

	d, err := readDocument(context.Background(), strings.NewReader(centerSVG), encUnknown, "in.svg", log)
	if err != nil {
		t.Fatalf("readDocument() error = %v", err)
	}
	if d.Source() != "in.svg" {
		t.Errorf("Source() = %q", d.Source())
	}
	if string(d.Raw()) != centerSVG {
		t.Error("Raw() does not return source bytes")
	}
	if d.RefID().String() == "" {
		t.Error("RefID() is empty")
	}
	if d.Result() != nil {
		t.Error("Result() should be nil before alignment")
	}

	other, err := readDocument(context.Background(), strings.NewReader(centerSVG), encUnknown, "in.svg", log)
	if err != nil {
		t.Fatalf("readDocument() error = %v", err)
	}
	if other.RefID() == d.RefID() {
		t.Error("documents should get distinct reference ids")
	}
}

func TestReadDocument_Errors(t *testing.T) {
	log := zaptest.NewLogger(t)

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"only declaration", `<?xml version="1.0"?>`},
		{"truncated", `<svg xmlns="http://www.w3.org/2000/svg"><text`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readDocument(context.Background(), strings.NewReader(tt.src), encUnknown, "x.svg", log); err == nil {
				t.Error("Expected error")
			}
		})
	}

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := readDocument(ctx, strings.NewReader(centerSVG), encUnknown, "x.svg", log); !errors.Is(err, context.Canceled) {
			t.Errorf("readDocument() error = %v, want context.Canceled", err)
		}
	})
}

func TestReadDocument_Encodings(t *testing.T) {
	log := zaptest.NewLogger(t)
	const body = `<svg xmlns="http://www.w3.org/2000/svg"><text id="t_left"><tspan x="1">Привет</tspan></text></svg>`

	legacy, err := charmap.Windows1251.NewEncoder().String(`<?xml version="1.0" encoding="windows-1251"?>` + body)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		enc  srcEncoding
	}{
		{"declared legacy charset", []byte(legacy), encUnknown},
		{"utf-16 with bom", utf16le(t, `<?xml version="1.0" encoding="UTF-16"?>`+body), encUTF16LittleEndian},
		{"utf-8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, `<?xml version="1.0" encoding="utf-8"?>`+body...), encUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := readDocument(context.Background(), bytes.NewReader(tt.data), tt.enc, "x.svg", log)
			if err != nil {
				t.Fatalf("readDocument() error = %v", err)
			}
			out, err := d.bytes(false)
			if err != nil {
				t.Fatalf("bytes() error = %v", err)
			}
			if !bytes.Contains(out, []byte("Привет")) {
				t.Errorf("text was not decoded:\n%s", out)
			}
			if bytes.Contains(bytes.ToLower(out), []byte("windows-1251")) || bytes.Contains(out, []byte("UTF-16")) {
				t.Errorf("declaration does not match UTF-8 output:\n%s", out)
			}
		})
	}
}

func TestDocument_AlignIsAllOrNothing(t *testing.T) {
	_, env, log := testEnv(t)

	const src = `<svg xmlns="http://www.w3.org/2000/svg">` +
		`<text id="first_right" font-size="10"><tspan x="10">A</tspan></text>` +
		`<text id="second_right" font-size="10"><tspan x="oops">B</tspan></text></svg>`

	d, err := readDocument(context.Background(), strings.NewReader(src), encUnknown, "x.svg", log)
	if err != nil {
		t.Fatalf("readDocument() error = %v", err)
	}
	if err := d.align(env.Aligner()); !errors.Is(err, align.ErrMalformedNumeral) {
		t.Fatalf("align() error = %v, want ErrMalformedNumeral", err)
	}
	if d.Result() != nil {
		t.Error("Result() should stay nil after failure")
	}
	out, err := d.bytes(false)
	if err != nil {
		t.Fatalf("bytes() error = %v", err)
	}
	if string(out) != src {
		t.Errorf("document changed by failed alignment:\n%s", out)
	}
}

func TestDocument_Minify(t *testing.T) {
	_, env, log := testEnv(t)

	const src = `<?xml version="1.0" encoding="UTF-8"?>
<!-- comment to be dropped -->
<svg xmlns="http://www.w3.org/2000/svg"   viewBox="0 0 100 100">
    <text id="label_center" font-size="10">
        <tspan x="50">Centered</tspan>
    </text>
</svg>
`
	d, err := readDocument(context.Background(), strings.NewReader(src), encUnknown, "x.svg", log)
	if err != nil {
		t.Fatalf("readDocument() error = %v", err)
	}
	if err := d.align(env.Aligner()); err != nil {
		t.Fatalf("align() error = %v", err)
	}
	// whitespace around the run belongs to text element, not to the run
	if d.Result().Applied() != 1 {
		t.Errorf("Applied() = %d, want 1", d.Result().Applied())
	}

	plain, err := d.bytes(false)
	if err != nil {
		t.Fatalf("bytes() error = %v", err)
	}
	small, err := d.bytes(true)
	if err != nil {
		t.Fatalf("bytes(minify) error = %v", err)
	}
	if len(small) >= len(plain) {
		t.Errorf("minified output is not smaller: %d >= %d", len(small), len(plain))
	}
	if bytes.Contains(small, []byte("comment to be dropped")) {
		t.Error("comment survived minification")
	}
	if !bytes.Contains(small, []byte("Centered")) {
		t.Error("text lost by minification")
	}
}

func TestDocument_RoundTripKeepsUntouchedContent(t *testing.T) {
	_, env, log := testEnv(t)

	const untouched = `<svg xmlns="http://www.w3.org/2000/svg" aria-label="it's">` +
		`<text id="plain" xml:space="preserve">It's "quoted" &amp; done</text>` +
		`<desc>Don't 'touch' "this"</desc></svg>`

	t.Run("no targets", func(t *testing.T) {
		d, err := readDocument(context.Background(), strings.NewReader(untouched), encUnknown, "x.svg", log)
		if err != nil {
			t.Fatalf("readDocument() error = %v", err)
		}
		if err := d.align(env.Aligner()); err != nil {
			t.Fatalf("align() error = %v", err)
		}
		out, err := d.bytes(false)
		if err != nil {
			t.Fatalf("bytes() error = %v", err)
		}
		if string(out) != untouched {
			t.Errorf("document changed:\n got %s\nwant %s", out, untouched)
		}
	})

	t.Run("with target", func(t *testing.T) {
		src := strings.Replace(untouched, `<desc>`,
			`<text id="t_right" font-size="10"><tspan x="5" title="a 'b'">Ann's</tspan></text><desc>`, 1)
		d, err := readDocument(context.Background(), strings.NewReader(src), encUnknown, "x.svg", log)
		if err != nil {
			t.Fatalf("readDocument() error = %v", err)
		}
		if err := d.align(env.Aligner()); err != nil {
			t.Fatalf("align() error = %v", err)
		}
		if d.Result().Applied() != 1 {
			t.Fatalf("Applied() = %d, want 1", d.Result().Applied())
		}
		out, err := d.bytes(false)
		if err != nil {
			t.Fatalf("bytes() error = %v", err)
		}
		for _, want := range []string{
			`aria-label="it's"`,
			`It's "quoted" &amp; done`,
			`<desc>Don't 'touch' "this"</desc>`,
			`title="a 'b'"`,
			`>Ann's</tspan>`,
		} {
			if !strings.Contains(string(out), want) {
				t.Errorf("output lost %q:\n%s", want, out)
			}
		}
	})
}
