package logger

import (
	"fmt"
	"sync"
)

// Entry is a message captured by a Recorder.
type Entry struct {
	Level   string
	Message string
}

// Recorder is a Logger that keeps every message in memory. Tests use it to
// assert on diagnostics.
type Recorder struct {
	mu      sync.Mutex
	Entries []Entry
}

func (r *Recorder) add(level, format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Entry{Level: level, Message: fmt.Sprintf(format, v...)})
}

// Debugf records a debug message.
func (r *Recorder) Debugf(format string, v ...interface{}) { r.add("debug", format, v...) }

// Infof records an info message.
func (r *Recorder) Infof(format string, v ...interface{}) { r.add("info", format, v...) }

// Warnf records a warning.
func (r *Recorder) Warnf(format string, v ...interface{}) { r.add("warn", format, v...) }

// Errorf records an error message.
func (r *Recorder) Errorf(format string, v ...interface{}) { r.add("error", format, v...) }

// Messages returns the recorded messages of the given level.
func (r *Recorder) Messages(level string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.Entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
