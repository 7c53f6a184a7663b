package process

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// srcEncoding is encoding detected by BOM at the start of the source.
type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

// headerSize is how much of the file is looked at to decide if it is SVG,
// large enough to skip over prolog with comments and doctype.
const headerSize = 4096

var svgType = filetype.NewType("svg", "image/svg+xml")

func init() {
	filetype.AddMatcher(svgType, isSVGHeader)
}

// isSVGHeader checks that first element in UTF-8 buffer is svg root,
// skipping XML declaration, processing instructions, comments and doctype.
func isSVGHeader(buf []byte) bool {
	rest, complete := skipProlog(buf)
	return complete && isSVGRoot(rest)
}

// skipProlog returns buffer past XML prolog. When prolog does not end within
// buffer complete is false.
func skipProlog(buf []byte) (rest []byte, complete bool) {
	for {
		buf = bytes.TrimLeft(buf, " \t\r\n")
		var end int
		switch {
		case bytes.HasPrefix(buf, []byte("<?")):
			end = markupEnd(buf, "?>")
		case bytes.HasPrefix(buf, []byte("<!--")):
			end = markupEnd(buf, "-->")
		case bytes.HasPrefix(buf, []byte("<!")):
			end = doctypeEnd(buf)
		default:
			return buf, true
		}
		if end < 0 {
			return nil, false
		}
		buf = buf[end:]
	}
}

func markupEnd(buf []byte, end string) int {
	if i := bytes.Index(buf, []byte(end)); i >= 0 {
		return i + len(end)
	}
	return -1
}

// doctypeEnd returns position past doctype declaration, internal subset in
// square brackets may contain markup of its own.
func doctypeEnd(buf []byte) int {
	i := bytes.IndexAny(buf, "[>")
	if i < 0 {
		return -1
	}
	if buf[i] == '>' {
		return i + 1
	}
	for pos := i + 1; ; {
		j := bytes.IndexByte(buf[pos:], ']')
		if j < 0 {
			return -1
		}
		pos += j + 1
		tail := bytes.TrimLeft(buf[pos:], " \t\r\n")
		if len(tail) == 0 {
			return -1
		}
		if tail[0] == '>' {
			return len(buf) - len(tail) + 1
		}
	}
}

// isSVGRoot checks for "<svg" or "<prefix:svg" start tag.
func isSVGRoot(buf []byte) bool {
	if !bytes.HasPrefix(buf, []byte("<")) {
		return false
	}
	buf = buf[1:]
	i := bytes.IndexAny(buf, " \t\r\n/>")
	if i < 0 {
		return false
	}
	name := buf[:i]
	if j := bytes.IndexByte(name, ':'); j >= 0 {
		name = name[j+1:]
	}
	return string(name) == "svg"
}

func isUTF32BE(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LE(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

func isUTF16BE(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LE(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

// detectUTF looks for BOM. UTF-32 must be checked before UTF-16 as UTF-32 LE
// BOM starts with UTF-16 LE one.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF32BE(buf):
		return encUTF32BigEndian
	case isUTF32LE(buf):
		return encUTF32LittleEndian
	case isUTF16BE(buf):
		return encUTF16BigEndian
	case isUTF16LE(buf):
		return encUTF16LittleEndian
	}
	return encUnknown
}

// selectReader returns reader producing UTF-8 without BOM for sources with
// detected BOM, source reader itself otherwise.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	}
	// this should never happen
	panic(fmt.Sprintf("unexpected source encoding %d", enc))
}

// sniff reads header from r and reports whether it is SVG document and which
// BOM it starts with.
func sniff(r io.Reader) (bool, srcEncoding, error) {
	buf := make([]byte, headerSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, encUnknown, err
	}
	buf = buf[:n]

	enc := detectUTF(buf)
	// decoded header may be cut in the middle of multibyte sequence, it does
	// not matter for looking at prolog
	decoded, _ := io.ReadAll(selectReader(bytes.NewReader(buf), enc))
	if len(decoded) == 0 {
		return false, enc, nil
	}

	kind, err := filetype.Match(decoded)
	if err != nil {
		return false, encUnknown, err
	}
	if kind == svgType {
		return true, enc, nil
	}
	// prolog (huge comment for example) longer than the header, root is
	// somewhere further and parser will decide
	if n == headerSize {
		if _, complete := skipProlog(decoded); !complete {
			return true, enc, nil
		}
	}
	return false, enc, nil
}

// detectEncoding reads enough of r to look for BOM.
func detectEncoding(r io.Reader) (srcEncoding, error) {
	buf := make([]byte, 4)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return encUnknown, err
	}
	return detectUTF(buf[:n]), nil
}

func hasSVGExt(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".svg")
}

// isSVGFile checks file extension and content. Encoding is only meaningful
// when file is SVG.
func isSVGFile(path string) (bool, srcEncoding, error) {
	if !hasSVGExt(path) {
		return false, encUnknown, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()
	return sniff(f)
}

// isSVGInArchive is isSVGFile for archive entries.
func isSVGInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !hasSVGExt(f.FileHeader.Name) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()
	return sniff(r)
}

// isArchiveFile detects zip archives by content.
func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// filetype needs at most 262 bytes
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	kind, err := filetype.Match(head[:n])
	if err != nil {
		return false, nil
	}
	return kind == matchers.TypeZip, nil
}
