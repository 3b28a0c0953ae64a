// SPDX-License-Identifier: MPL-2.0

package console

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeChunk is the size of the intermediate buffer used per Transform call.
const decodeChunk = 4096

// LineDecoder is an io.WriteCloser that decodes bytes in a configured charset
// and calls emit once per complete line. Lines end at LF, CRLF, CR, NEL
// (U+0085), LINE SEPARATOR (U+2028) or PARAGRAPH SEPARATOR (U+2029).
// Multi-byte sequences split across writes are held until complete and
// empty lines are dropped. Close flushes any unterminated trailing text.
type LineDecoder struct {
	mu          sync.Mutex
	transformer transform.Transformer
	emit        func(line string)
	pending     []byte          // undecoded bytes, an incomplete sequence at most
	text        strings.Builder // decoded text not yet split into lines
	buf         [decodeChunk]byte
	closed      bool
}

// NewLineDecoder creates a LineDecoder for enc. A nil enc means UTF-8.
func NewLineDecoder(enc encoding.Encoding, emit func(line string)) *LineDecoder {
	if enc == nil {
		enc = unicode.UTF8
	}
	return &LineDecoder{
		transformer: enc.NewDecoder(),
		emit:        emit,
	}
}

// LookupCharset returns the encoding registered under an IANA charset name
// such as "UTF-8", "ISO-8859-1" or "windows-1252". An empty name means UTF-8.
func LookupCharset(name string) (encoding.Encoding, error) {
	if strings.TrimSpace(name) == "" {
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", name)
	}
	return enc, nil
}

// Write decodes p and emits every line it completes.
func (d *LineDecoder) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, errors.New("write to closed line decoder")
	}

	d.pending = append(d.pending, p...)
	if err := d.decode(false); err != nil {
		return 0, err
	}
	d.splitLines(false)
	return len(p), nil
}

// Close decodes any held bytes and emits the final unterminated line.
func (d *LineDecoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	err := d.decode(true)
	d.splitLines(true)
	return err
}

func (d *LineDecoder) decode(atEOF bool) error {
	for len(d.pending) > 0 {
		nDst, nSrc, err := d.transformer.Transform(d.buf[:], d.pending, atEOF)
		d.text.Write(d.buf[:nDst])
		d.pending = d.pending[nSrc:]

		switch {
		case err == nil:
			if nSrc == 0 && nDst == 0 {
				return nil
			}
		case errors.Is(err, transform.ErrShortDst):
			// Intermediate buffer full; go around again.
		case errors.Is(err, transform.ErrShortSrc):
			// Incomplete trailing sequence; wait for the next write.
			return nil
		default:
			return fmt.Errorf("decoding console output: %w", err)
		}
	}
	if atEOF {
		d.transformer.Reset()
	}
	return nil
}

func (d *LineDecoder) splitLines(atEOF bool) {
	s := d.text.String()
	start := 0
	i := 0

scan:
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '\r':
			// A trailing CR may be the first half of CRLF.
			if i+size == len(s) && !atEOF {
				break scan
			}
			d.emitLine(s[start:i])
			i += size
			if i < len(s) && s[i] == '\n' {
				i++
			}
			start = i
		case '\n', '\u0085', '\u2028', '\u2029':
			d.emitLine(s[start:i])
			i += size
			start = i
		default:
			i += size
		}
	}

	rest := s[start:]
	d.text.Reset()
	if atEOF {
		d.emitLine(rest)
		return
	}
	d.text.WriteString(rest)
}

func (d *LineDecoder) emitLine(line string) {
	if line == "" {
		return
	}
	d.emit(line)
}

// Lines decodes a complete buffer using enc and returns its lines.
func Lines(enc encoding.Encoding, data []byte) []string {
	var lines []string
	d := NewLineDecoder(enc, func(line string) { lines = append(lines, line) })
	_, _ = d.Write(data) // decoding with replacement never fails
	_ = d.Close()
	return lines
}
