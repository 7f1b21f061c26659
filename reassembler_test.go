package main

import "testing"

func TestLineBufferTakeLine(t *testing.T) {
	var lb LineBuffer

	lb.Append([]byte("NICK foo\r\nUSER"))

	line, ok := lb.TakeLine()
	if !ok || line != "NICK foo" {
		t.Fatalf("TakeLine() = %q, %v, wanted %q, true", line, ok, "NICK foo")
	}

	_, ok = lb.TakeLine()
	if ok {
		t.Fatalf("TakeLine() succeeded on a partial line")
	}

	lb.Append([]byte(" a 0 * :Real Name\n"))
	line, ok = lb.TakeLine()
	if !ok || line != "USER a 0 * :Real Name" {
		t.Fatalf("TakeLine() = %q, %v, wanted bare-LF line split correctly", line, ok)
	}
}

func TestLineBufferOverflow(t *testing.T) {
	var lb LineBuffer

	lb.Append(make([]byte, maxLineLength))
	if lb.Overflowed() {
		t.Fatalf("Overflowed() true at exactly maxLineLength bytes")
	}

	lb.Append([]byte("x"))
	if !lb.Overflowed() {
		t.Fatalf("Overflowed() false past maxLineLength bytes")
	}
}
