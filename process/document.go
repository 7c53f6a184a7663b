package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"svgalign/align"
)

const svgMediaType = "image/svg+xml"

var minifier = minify.New()

// writeSettings keep quotes and apostrophes in text and attribute values as
// they were, only characters XML requires are escaped.
var writeSettings = etree.WriteSettings{
	CanonicalText:    true,
	CanonicalAttrVal: true,
}

func init() {
	minifier.AddFunc(svgMediaType, svg.Minify)
}

// Document is single SVG document going through alignment.
type Document struct {
	src    string
	refID  uuid.UUID
	raw    []byte
	doc    *etree.Document
	result *align.Result
}

// Source returns name of the document relative to processed source.
func (d *Document) Source() string { return d.src }

// RefID identifies document in logs and debug report.
func (d *Document) RefID() uuid.UUID { return d.refID }

// Raw returns document bytes exactly as they were read.
func (d *Document) Raw() []byte { return d.raw }

// Result returns alignment result, nil until document is aligned.
func (d *Document) Result() *align.Result { return d.result }

// readDocument reads and parses SVG document. Reader must produce source
// bytes as is, BOM (if any) is handled according to enc.
func readDocument(ctx context.Context, r io.Reader, enc srcEncoding, src string, log *zap.Logger) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read source: %w", err)
	}

	refID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate document reference: %w", err)
	}

	doc := etree.NewDocument()
	doc.WriteSettings = writeSettings
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charsetReader(enc),
		Permissive:    true,
		PreserveCData: true,
	}
	if _, err := doc.ReadFrom(selectReader(bytes.NewReader(raw), enc)); err != nil {
		return nil, fmt.Errorf("unable to parse SVG: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("unable to parse SVG: document has no root element")
	}
	normalizeDeclaration(doc, log)

	return &Document{
		src:   src,
		refID: refID,
		raw:   raw,
		doc:   doc,
	}, nil
}

// charsetReader returns decoder for declared document encoding. When BOM was
// found stream is already UTF-8 and declaration is ignored.
func charsetReader(enc srcEncoding) func(string, io.Reader) (io.Reader, error) {
	if enc != encUnknown {
		return func(_ string, input io.Reader) (io.Reader, error) {
			return input, nil
		}
	}
	return charset.NewReaderLabel
}

var declaredEncodingRe = regexp.MustCompile(`encoding\s*=\s*("[^"]*"|'[^']*')`)

// normalizeDeclaration makes XML declaration agree with UTF-8 output.
func normalizeDeclaration(doc *etree.Document, log *zap.Logger) {
	for _, tok := range doc.Child {
		pi, ok := tok.(*etree.ProcInst)
		if !ok || pi.Target != "xml" {
			continue
		}
		m := declaredEncodingRe.FindStringSubmatch(pi.Inst)
		if m == nil {
			return
		}
		declared := strings.Trim(m[1], `"'`)
		if strings.EqualFold(declared, "utf-8") || strings.EqualFold(declared, "utf8") {
			return
		}
		pi.Inst = declaredEncodingRe.ReplaceAllLiteralString(pi.Inst, `encoding="UTF-8"`)
		log.Debug("Declared encoding replaced", zap.String("was", declared))
		return
	}
}

// align runs aligner over the document tree. Document is not changed when
// error is returned.
func (d *Document) align(a *align.Aligner) error {
	// walk mutates in place, fatal error in the middle leaves tree half way
	// through so keep working copy until walk succeeds
	work := d.doc.Copy()
	work.WriteSettings = writeSettings
	res, err := a.Walk(work.Root())
	if err != nil {
		return err
	}
	d.doc, d.result = work, res
	return nil
}

// bytes serializes document, optionally minifying it.
func (d *Document) bytes(minimize bool) ([]byte, error) {
	data, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("unable to serialize SVG: %w", err)
	}
	if !minimize {
		return data, nil
	}
	if data, err = minifier.Bytes(svgMediaType, data); err != nil {
		return nil, fmt.Errorf("unable to minify SVG: %w", err)
	}
	return data, nil
}
