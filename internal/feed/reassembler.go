// Package feed turns the raw orchestration text feed into classified lines.
package feed

import "bytes"

// Reassembler buffers raw chunks and yields complete, newline-terminated lines.
// Bytes are buffered undecoded, so a multi-byte rune split across two chunks
// is only converted to a string once its line is complete.
type Reassembler struct {
	pending []byte
	closed  bool
}

// NewReassembler creates an empty reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Feed appends chunk to the pending fragment and returns every line completed
// by it, without the terminating newline. The trailing piece (possibly empty)
// is kept for the next call. Feed returns nil once Close has been called.
func (r *Reassembler) Feed(chunk []byte) []string {
	if r.closed || len(chunk) == 0 {
		return nil
	}
	r.pending = append(r.pending, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(r.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(r.pending[:i]))
		r.pending = r.pending[i+1:]
	}

	// Compact so the backing array does not grow with the whole stream.
	if len(r.pending) == 0 {
		r.pending = nil
	} else if len(lines) > 0 {
		r.pending = append([]byte(nil), r.pending...)
	}
	return lines
}

// Pending returns the length in bytes of the unterminated fragment.
func (r *Reassembler) Pending() int {
	return len(r.pending)
}

// Close ends the stream. Any unterminated fragment is discarded and its length
// returned so the caller can report it.
func (r *Reassembler) Close() int {
	dropped := len(r.pending)
	r.pending = nil
	r.closed = true
	return dropped
}
