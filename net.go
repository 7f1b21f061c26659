package main

import (
	"bufio"
	"log"
	"net"
	"strings"
	"time"

	"github.com/horgh/irc"
	"github.com/pkg/errors"
)

// Conn is a connection to a client.
type Conn struct {
	conn net.Conn
	w    *bufio.Writer

	ioWait time.Duration

	IP string
}

// NewConn initializes a Conn struct. remoteIP is the peer's IP in dotted
// decimal form, or "unknown" if it could not be resolved.
func NewConn(conn net.Conn, ioWait time.Duration) Conn {
	remoteIP := "unknown"
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		remoteIP = addr.IP.String()
	}

	return Conn{
		conn:   conn,
		w:      bufio.NewWriter(conn),
		ioWait: ioWait,
		IP:     remoteIP,
	}
}

// Close closes the underlying connection.
func (c Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote network address.
func (c Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ReadChunk reads once into a fixed-size stack buffer, per the event loop's
// read-once-per-ready-socket contract. It returns the number of bytes read.
// A return of (0, nil) never happens for TCP; io.EOF or another error
// indicates the peer is gone.
func (c Conn) ReadChunk(buf []byte) (int, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.ioWait)); err != nil {
		return 0, errors.Wrap(err, "unable to set read deadline")
	}

	return c.conn.Read(buf)
}

// Write writes a string to the connection.
func (c Conn) Write(s string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.ioWait)); err != nil {
		return errors.Wrap(err, "unable to set write deadline")
	}

	sz, err := c.w.WriteString(s)
	if err != nil {
		return err
	}
	if sz != len(s) {
		return errors.New("short write")
	}

	if err := c.w.Flush(); err != nil {
		return errors.Wrap(err, "flush error")
	}

	log.Printf("sent: %s", strings.TrimRight(s, "\r\n"))

	return nil
}

// WriteMessage encodes and writes an IRC message to the connection.
func (c Conn) WriteMessage(m irc.Message) error {
	buf, err := m.Encode()
	if err != nil && errors.Cause(err) != irc.ErrTruncated {
		return errors.Wrap(err, "unable to encode message")
	}

	return c.Write(buf)
}
