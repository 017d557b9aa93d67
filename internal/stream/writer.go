// Package stream drives the reconciler over a feature stream, persisting
// invalid features incrementally and accumulating run statistics.
package stream

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// ArrayWriter emits a JSON array one element at a time: open bracket, comma
// separators, close bracket. It never holds more than the element currently
// being serialized, so nation-scale result sets stay O(1) in memory.
type ArrayWriter struct {
	w      io.Writer
	opened bool
	count  int
}

// NewArrayWriter wraps a sink. Nothing is written until the first element or
// Close, whichever comes first.
func NewArrayWriter(w io.Writer) *ArrayWriter {
	return &ArrayWriter{w: w}
}

// Write serializes one element into the array. Sink failures are fatal for
// the run and propagate to the caller.
func (a *ArrayWriter) Write(v any) error {
	sep := "[\n"
	if a.opened {
		sep = ",\n"
	}
	if _, err := io.WriteString(a.w, sep); err != nil {
		return eris.Wrap(err, "stream: write separator")
	}
	a.opened = true

	data, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "stream: marshal element")
	}
	if _, err := a.w.Write(data); err != nil {
		return eris.Wrap(err, "stream: write element")
	}
	a.count++
	return nil
}

// Count returns the number of elements written so far.
func (a *ArrayWriter) Count() int { return a.count }

// Close terminates the array, emitting "[]" when nothing was written.
func (a *ArrayWriter) Close() error {
	end := "[]\n"
	if a.opened {
		end = "\n]\n"
	}
	if _, err := io.WriteString(a.w, end); err != nil {
		return eris.Wrap(err, "stream: close array")
	}
	return nil
}
