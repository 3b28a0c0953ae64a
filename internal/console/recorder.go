// SPDX-License-Identifier: MPL-2.0

package console

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/encoding"
)

const (
	// StreamStdout identifies standard output.
	StreamStdout Stream = iota + 1
	// StreamStderr identifies standard error.
	StreamStderr
)

type (
	// Stream identifies which console stream a chunk of output came from.
	Stream int

	// Record is a run of consecutive output from one stream.
	Record struct {
		Stream Stream
		Data   []byte
	}

	// Recorder buffers console output in arrival order. Consecutive chunks
	// from the same stream are merged into one Record; a chunk from the other
	// stream starts a new one, so the total order across streams survives.
	// It is safe for concurrent use.
	Recorder struct {
		mu      sync.Mutex
		records []*recordBuffer
	}

	recordBuffer struct {
		stream Stream
		buf    bytes.Buffer
	}

	streamWriter struct {
		recorder *Recorder
		stream   Stream
	}
)

// String returns "stdout" or "stderr".
func (s Stream) String() string {
	switch s {
	case StreamStdout:
		return "stdout"
	case StreamStderr:
		return "stderr"
	default:
		return fmt.Sprintf("Stream(%d)", int(s))
	}
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Add appends p to the recording for stream.
func (r *Recorder) Add(stream Stream, p []byte) {
	if len(p) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.records); n > 0 && r.records[n-1].stream == stream {
		r.records[n-1].buf.Write(p)
		return
	}
	rb := &recordBuffer{stream: stream}
	rb.buf.Write(p)
	r.records = append(r.records, rb)
}

// Writer returns an io.Writer that records everything written to it under stream.
func (r *Recorder) Writer(stream Stream) io.Writer {
	return &streamWriter{recorder: r, stream: stream}
}

// Records returns a snapshot of the recorded output in arrival order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Record, 0, len(r.records))
	for _, rb := range r.records {
		out = append(out, Record{Stream: rb.stream, Data: bytes.Clone(rb.buf.Bytes())})
	}
	return out
}

// Lines splits the record into message lines using enc (nil means UTF-8).
func (rec Record) Lines(enc encoding.Encoding) []string {
	return Lines(enc, rec.Data)
}

func (w *streamWriter) Write(p []byte) (int, error) {
	w.recorder.Add(w.stream, p)
	return len(p), nil
}
