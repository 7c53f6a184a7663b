package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"svgalign/misc"
)

// PreviewConfig controls rasterized previews of resulting documents put into
// the report.
type PreviewConfig struct {
	Enable bool `yaml:"enable"`
	Width  int  `yaml:"width" validate:"gte=16,lte=8192"`
	Height int  `yaml:"height" validate:"gte=16,lte=8192"`
}

type ReporterConfig struct {
	Destination string        `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
	Preview     PreviewConfig `yaml:"preview"`
}

// Prepare creates empty report. When destination cannot be created report
// goes to temporary directory, Name tells where.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	f, err := os.Create(conf.Destination)
	if err != nil {
		if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err != nil {
			return nil, fmt.Errorf("unable to create report: %w", err)
		}
	}
	return &Report{entries: make(map[string]entry), file: f, preview: conf.Preview}, nil
}

// entry is either file on disk, read when report is closed, or data kept in
// memory.
type entry struct {
	path  string
	data  []byte
	stamp time.Time
}

// Report accumulates everything which goes into debug archive. All methods
// are safe to call on nil Report, which means no report was requested, and
// from multiple goroutines.
type Report struct {
	mu      sync.Mutex
	entries map[string]entry
	file    *os.File
	preview PreviewConfig
}

// Close writes the archive.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalize()
}

// Preview returns preview settings when previews were requested, nil otherwise.
func (r *Report) Preview() *PreviewConfig {
	if r == nil || !r.preview.Enable {
		return nil
	}
	p := r.preview
	return &p
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store records file to be put into archive under name. File is read on
// Close, so logs stored early end up complete.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if p, err := filepath.Abs(path); err == nil {
		path = p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, exists := r.entries[name]; exists && old.path != path {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.path, path))
	}
	r.entries[name] = entry{path: path}
}

// StoreData records data to be put into archive under name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("Attempt to overwrite data in the report for [%s]", name))
	}
	r.entries[name] = entry{data: data, stamp: time.Now()}
}

func (r *Report) finalize() error {
	arc := zip.NewWriter(r.file)

	names := slices.Sorted(maps.Keys(r.entries))
	if err := saveFile(arc, "MANIFEST", time.Now(), r.manifest(names)); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if len(e.path) == 0 {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}
		// files which disappeared (or never were there) are skipped
		info, err := os.Stat(e.path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if err := storeFile(arc, name, e.path, info.ModTime()); err != nil {
			return err
		}
	}
	return arc.Close()
}

func (r *Report) manifest(names []string) io.Reader {
	now := time.Now()

	buf := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		stamp, origin := e.stamp, e.path
		if stamp.IsZero() {
			stamp = now
		}
		if len(origin) == 0 {
			origin = "<memory>"
		}
		fmt.Fprintf(buf, "%s\t%s\t%s\n", stamp.UTC().Format(time.UnixDate), name, origin)
	}
	return buf
}

func storeFile(dst *zip.Writer, name, path string, t time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, t, f)
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}
