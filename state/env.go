// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"svgalign/align"
	"svgalign/config"
	"svgalign/metrics"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// Font used for all measurements, loaded once and shared read-only by
	// every document processed by the run.
	Face       *metrics.Face
	FontSource metrics.Source

	// used by align subcommand
	NoDirs    bool
	Overwrite bool
	CodePage  encoding.Encoding

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// Aligner returns document aligner configured according to current
// configuration and measuring with loaded font.
func (e *LocalEnv) Aligner() *align.Aligner {
	conf := e.Cfg.Document.Align
	return align.New(e.Face, e.Log,
		align.WithTags(conf.TextTag, conf.RunTag),
		align.WithAnchorAttr(conf.AnchorAttribute),
		align.WithDefaultFontSize(float32(conf.DefaultFontSize)),
	)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}
