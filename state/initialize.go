package state

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"svgalign/metrics"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
	}
}

// LoadFont locates and parses font requested by configuration. Configuration
// must be loaded first.
func (e *LocalEnv) LoadFont() error {
	conf := e.Cfg.Document.Font

	face, src, err := metrics.Load(conf.Path, conf.Name, float32(conf.ScaleCorrection))
	if err != nil {
		return fmt.Errorf("unable to load font: %w", err)
	}
	e.Face, e.FontSource = face, src
	if src.Kind != "embedded" {
		// measurements cannot be reproduced without the very same font
		e.Rpt.Store("font/"+filepath.Base(src.Path), src.Path)
	}

	if e.Log != nil {
		e.Log.Debug("Font loaded",
			zap.String("source", src.Kind),
			zap.String("path", src.Path),
			zap.String("family", face.Family()),
			zap.Float32("scale_correction", face.ScaleCorrection()))
	}
	return nil
}
