package process

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"

	"svgalign/config"
	"svgalign/state"
)

const outputExt = ".svg"

// buildOutputPath returns output file path for source "src" (relative path
// of the document inside processed directory or archive, always including
// file name) under destination directory "dst". Source directory structure is
// kept unless requested otherwise, every path segment is cleaned and if
// requested transliterated.
func buildOutputPath(src, dst string, env *state.LocalEnv) string {
	segments := splitPath(filepath.Dir(src))
	if env.NoDirs {
		segments = nil
	}

	parts := make([]string, 0, len(segments)+2)
	parts = append(parts, dst)
	for _, segment := range segments {
		parts = append(parts, cleanPathSegment(segment, env))
	}

	baseName := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	parts = append(parts, cleanPathSegment(baseName, env)+outputExt)
	return filepath.Join(parts...)
}

// splitPath splits relative path into its segments dropping empty and "."
// ones.
func splitPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); ; head, tail = filepath.Split(head) {
		if tail != "" && tail != "." {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" || head == path {
			break
		}
		path = head
	}

	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.Output.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
