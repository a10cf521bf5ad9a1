// Package platform provides ready-made hook sets for common hosts, the
// port layer of the library: the core stays free of clocks, loggers and
// locks, and a port wires the ambient ones in.
package platform

import (
	"sync"
	"time"

	"go.uber.org/zap"

	heaptrace "github.com/embtrace/heap-trace"
)

// Host returns the hook set for a regular OS process: a monotonic
// microsecond clock anchored at the call, log lines through the given
// zap logger, and a mutex pair so the tracer can be fed from multiple
// goroutines.
//
// A nil logger gets a no-op one; timestamps and locking still work,
// matching the tracer's silent-by-default posture.
func Host(logger *zap.Logger) heaptrace.Hooks {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	var mu sync.Mutex
	return heaptrace.Hooks{
		TimestampUS: func() uint64 {
			return uint64(time.Since(start).Microseconds())
		},
		Log: func(msg string) {
			// Tracer messages arrive newline-terminated for raw sinks.
			logger.Info(trimNewline(msg))
		},
		Lock:   mu.Lock,
		Unlock: mu.Unlock,
	}
}

// Clock returns hooks carrying only the monotonic clock, the analog of
// the minimal embedded port that registers a timestamp source and
// nothing else.
func Clock() heaptrace.Hooks {
	start := time.Now()
	return heaptrace.Hooks{
		TimestampUS: func() uint64 {
			return uint64(time.Since(start).Microseconds())
		},
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
