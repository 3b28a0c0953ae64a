// SPDX-License-Identifier: MPL-2.0

package console

import (
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRecorder_MergesOnlyConsecutiveSameStream(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Add(StreamStdout, []byte("a"))
	r.Add(StreamStdout, []byte("b"))
	r.Add(StreamStderr, []byte("c"))
	r.Add(StreamStdout, []byte("d"))

	got := r.Records()
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}

	want := []Record{
		{Stream: StreamStdout, Data: []byte("ab")},
		{Stream: StreamStderr, Data: []byte("c")},
		{Stream: StreamStdout, Data: []byte("d")},
	}
	for i := range want {
		if got[i].Stream != want[i].Stream || string(got[i].Data) != string(want[i].Data) {
			t.Errorf("record %d: expected %s:%q, got %s:%q", i, want[i].Stream, want[i].Data, got[i].Stream, got[i].Data)
		}
	}
}

func TestRecorder_Writers(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	out := r.Writer(StreamStdout)
	errw := r.Writer(StreamStderr)

	_, _ = out.Write([]byte("compiling\n"))
	_, _ = errw.Write([]byte("warning: x\n"))
	_, _ = errw.Write([]byte("warning: y\n"))

	records := r.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if got := records[1].Lines(nil); !slices.Equal(got, []string{"warning: x", "warning: y"}) {
		t.Errorf("unexpected stderr lines %q", got)
	}
}

func TestRecorder_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			r.Add(StreamStdout, []byte("x"))
		})
	}
	wg.Wait()

	records := r.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 merged record, got %d", len(records))
	}
	if len(records[0].Data) != 50 {
		t.Errorf("expected 50 bytes, got %d", len(records[0].Data))
	}
}

func TestRecorder_IgnoresEmptyChunks(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Add(StreamStdout, []byte("a"))
	r.Add(StreamStderr, nil)
	r.Add(StreamStdout, []byte("b"))

	if got := r.Records(); len(got) != 1 || string(got[0].Data) != "ab" {
		t.Errorf("expected single record ab, got %v", got)
	}
}

func TestStreamString(t *testing.T) {
	t.Parallel()

	if StreamStdout.String() != "stdout" || StreamStderr.String() != "stderr" {
		t.Errorf("unexpected stream names %q %q", StreamStdout, StreamStderr)
	}
}

func TestCharmLogger_InfoEnabled(t *testing.T) {
	t.Parallel()

	logger := log.New(io.Discard)
	logger.SetLevel(log.WarnLevel)
	if NewCharmLogger(logger).InfoEnabled() {
		t.Error("expected info to be disabled at warn level")
	}

	logger.SetLevel(log.DebugLevel)
	if !NewCharmLogger(logger).InfoEnabled() {
		t.Error("expected info to be enabled at debug level")
	}
}
