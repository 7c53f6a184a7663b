package align

import (
	"go.uber.org/zap"
)

// Default names used when no options are given.
const (
	DefaultTextTag    = "text"
	DefaultRunTag     = "tspan"
	DefaultAnchorAttr = "text-anchor"
	DefaultFontSize   = float32(16)
)

// Measurer returns rendered width of text at the requested font size in
// document coordinate units. Implementations must be safe for concurrent use.
type Measurer interface {
	Measure(text string, size float32) (float32, error)
}

// Aligner walks document trees and re-anchors text runs. It keeps no state
// between walks, the same Aligner may be used for any number of documents.
type Aligner struct {
	measurer   Measurer
	log        *zap.Logger
	textTag    string
	runTag     string
	anchorAttr string
	fontSize   float32
}

// Option changes Aligner defaults.
type Option func(*Aligner)

// WithTags sets local names of alignment bearing element and of its text run.
func WithTags(text, run string) Option {
	return func(a *Aligner) {
		if text != "" {
			a.textTag = text
		}
		if run != "" {
			a.runTag = run
		}
	}
}

// WithAnchorAttr sets name of the attribute receiving anchor mode.
func WithAnchorAttr(name string) Option {
	return func(a *Aligner) {
		if name != "" {
			a.anchorAttr = name
		}
	}
}

// WithDefaultFontSize sets size used when element has no font-size attribute.
func WithDefaultFontSize(size float32) Option {
	return func(a *Aligner) {
		if size > 0 {
			a.fontSize = size
		}
	}
}

// New creates Aligner measuring text with m.
func New(m Measurer, log *zap.Logger, options ...Option) *Aligner {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Aligner{
		measurer:   m,
		log:        log.Named("align"),
		textTag:    DefaultTextTag,
		runTag:     DefaultRunTag,
		anchorAttr: DefaultAnchorAttr,
		fontSize:   DefaultFontSize,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}
