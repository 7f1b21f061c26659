package main

import "bytes"

// maxLineLength is the hard cap on a residual, unterminated line in a
// client's inbound buffer. RFC 1459 caps a message at 512 bytes including
// CRLF; a larger residue implies the peer sent a command with no terminator.
const maxLineLength = 512

// LineBuffer reassembles a byte stream into whole IRC lines. It owns a
// per-connection buffer; bytes are appended as they arrive off the socket and
// complete lines are taken off the front as they become available.
//
// A LineBuffer is not safe for concurrent use. Each client's readLoop owns
// its LineBuffer exclusively.
type LineBuffer struct {
	buf []byte
}

// Append adds newly read bytes to the buffer.
func (l *LineBuffer) Append(p []byte) {
	l.buf = append(l.buf, p...)
}

// TakeLine removes and returns one complete line from the front of the
// buffer, if one is available. It looks for CRLF first; failing that, a bare
// LF (with any trailing CR stripped). Empty lines are returned as empty
// strings; it is the caller's job to drop them.
func (l *LineBuffer) TakeLine() (string, bool) {
	if idx := bytes.Index(l.buf, []byte{'\r', '\n'}); idx != -1 {
		line := string(l.buf[:idx])
		l.buf = l.buf[idx+2:]
		return line, true
	}

	if idx := bytes.IndexByte(l.buf, '\n'); idx != -1 {
		end := idx
		if end > 0 && l.buf[end-1] == '\r' {
			end--
		}
		line := string(l.buf[:end])
		l.buf = l.buf[idx+1:]
		return line, true
	}

	return "", false
}

// Overflowed reports whether the residual buffer (after draining every
// complete line) exceeds the hard cap. The caller must disconnect the
// connection with no reply when this is true.
func (l *LineBuffer) Overflowed() bool {
	return len(l.buf) > maxLineLength
}
