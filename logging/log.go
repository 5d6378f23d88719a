// Package logging wraps glog the way the compiler's commands use it.
package logging

import (
	"flag"
	"strconv"
	"sync"

	"github.com/golang/glog"
)

var initOnce sync.Once

// InitLogging ensures the glog library has been initialized with the given settings.
func InitLogging(logToStderr bool, verbose int) {
	initOnce.Do(func() {
		// glog reads its settings from the standard flag set.
		if !flag.Parsed() {
			_ = flag.CommandLine.Parse(nil)
		}
	})
	_ = flag.Lookup("logtostderr").Value.Set(strconv.FormatBool(logToStderr))
	_ = flag.Lookup("v").Value.Set(strconv.Itoa(verbose))
}

// V returns a verbose logger enabled at or above level.
func V(level glog.Level) glog.Verbose {
	return glog.V(level)
}

func Infof(format string, args ...any) {
	glog.Infof(format, args...)
}

func Warningf(format string, args ...any) {
	glog.Warningf(format, args...)
}

// Flush writes any buffered log entries.
func Flush() {
	glog.Flush()
}
