// Package mlog provides leveled, low-overhead logging for the metric-object
// kernel, in the spirit of the teacher's own cmn/nlog package: package-level
// helpers backed by a single structured sink, plus a verbosity gate so hot
// paths (per-object distance calls) can skip formatting entirely.
package mlog

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	mu     sync.Mutex
	sugar  atomic.Pointer[zap.SugaredLogger]
	vlevel atomic.Int32
)

func init() {
	l, _ := zap.NewProduction()
	sugar.Store(l.Sugar())
}

// SetLevel adjusts the global verbosity gate consulted by FastV.
func SetLevel(v int) { vlevel.Store(int32(v)) }

// SetSink swaps the underlying zap logger, e.g. to a development config
// during tests.
func SetSink(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugar.Store(l.Sugar())
}

// FastV reports whether verbosity v is currently enabled. Call sites guard
// expensive formatting with it the same way the teacher's cos.FastV does:
//
//	if mlog.FastV(5) { mlog.Infof("...", expensive()) }
func FastV(v int) bool { return vlevel.Load() >= int32(v) }

func Infoln(args ...any)             { sugar.Load().Infoln(args...) }
func Infof(f string, args ...any)    { sugar.Load().Infof(f, args...) }
func Warningf(f string, args ...any) { sugar.Load().Warnf(f, args...) }
func Errorln(args ...any)            { sugar.Load().Errorln(args...) }
func Errorf(f string, args ...any)   { sugar.Load().Errorf(f, args...) }
