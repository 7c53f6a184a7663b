package metrics

import (
	"fmt"
	"os"

	"github.com/flopp/go-findfont"
	"golang.org/x/image/font/gofont/goregular"
)

// Source describes where font data came from.
type Source struct {
	Kind string // "file", "system" or "embedded"
	Path string
}

// Locate returns font data. Explicit path wins, then system font with
// matching file name, then embedded Go Regular font.
func Locate(path, name string) ([]byte, Source, error) {
	switch {
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, Source{}, fmt.Errorf("unable to read font file: %w", err)
		}
		return data, Source{Kind: "file", Path: path}, nil
	case name != "":
		found, err := findfont.Find(name)
		if err != nil {
			return nil, Source{}, fmt.Errorf("unable to find system font %q: %w", name, err)
		}
		data, err := os.ReadFile(found)
		if err != nil {
			return nil, Source{}, fmt.Errorf("unable to read system font: %w", err)
		}
		return data, Source{Kind: "system", Path: found}, nil
	default:
		return goregular.TTF, Source{Kind: "embedded", Path: "Go Regular"}, nil
	}
}

// Load locates font and creates Face from it.
func Load(path, name string, correction float32) (*Face, Source, error) {
	data, src, err := Locate(path, name)
	if err != nil {
		return nil, src, err
	}
	face, err := Parse(data, correction)
	if err != nil {
		return nil, src, fmt.Errorf("font %s (%s): %w", src.Path, src.Kind, err)
	}
	return face, src, nil
}
