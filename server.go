package main

import (
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// idleTimeBeforePing is how long a registered client may be idle before we
// send it a PING.
const idleTimeBeforePing = 2 * time.Minute

// idleTimeBeforeDead is how long a client may be idle (after a PING with no
// response) before we consider it dead.
const idleTimeBeforeDead = 4 * time.Minute

// ioWait bounds how long a single read or write may take before it is
// treated as an error.
const ioWait = 5 * time.Minute

const serverVersion = "ircd-0.1"

// eventKind distinguishes the events a client's readLoop/writeLoop can post
// back to the server's single state-owning goroutine.
type eventKind int

const (
	eventLine eventKind = iota
	eventDead
	eventOverflow
)

// clientEvent is how a client's goroutines communicate with the server's
// run loop. The run loop is the only goroutine that mutates Clients, Nicks,
// or Channels.
type clientEvent struct {
	kind   eventKind
	client *Client
	line   string
	err    error
}

// Server holds the process-wide entity store and drives the event loop.
// It is exclusively owned by the Run() goroutine once started; nothing else
// may touch Clients, Nicks, or Channels.
type Server struct {
	// Name is the server name sent as the prefix of every message the server
	// originates.
	Name string

	// Password clients must supply via PASS to become Authenticated.
	Password string

	// Created is a human readable creation timestamp, used in 003.
	Created string

	// Clients holds every connected client, keyed by its unique ID.
	Clients map[uint64]*Client

	// Nicks holds every client with a nickname set, keyed by the exact
	// (case-sensitive) nickname.
	Nicks map[string]*Client

	// Channels holds every channel with at least one member, keyed by its
	// exact (case-sensitive) name.
	Channels map[string]*Channel

	nextID uint64

	newClientChan chan *Client
	eventChan     chan clientEvent

	// ShutdownChan is closed to request a graceful shutdown. The event loop
	// polls it every iteration via select.
	ShutdownChan chan struct{}

	// WG tracks every reader/writer/accept goroutine so shutdown can wait for
	// them to finish.
	WG sync.WaitGroup
}

// NewServer makes a Server ready to have its listener started.
func NewServer(name, password string) *Server {
	return &Server{
		Name:          name,
		Password:      password,
		Created:       time.Now().Format(time.RFC1123),
		Clients:       make(map[uint64]*Client),
		Nicks:         make(map[string]*Client),
		Channels:      make(map[string]*Channel),
		newClientChan: make(chan *Client, 64),
		eventChan:     make(chan clientEvent, 256),
		ShutdownChan:  make(chan struct{}),
	}
}

// newEvent is how a client's goroutines hand an event back to the server.
// Safe to call from any goroutine.
func (s *Server) newEvent(e clientEvent) {
	select {
	case s.eventChan <- e:
	case <-s.ShutdownChan:
	}
}

// isShuttingDown reports whether shutdown has been requested. Safe to call
// from any goroutine.
func (s *Server) isShuttingDown() bool {
	select {
	case <-s.ShutdownChan:
		return true
	default:
		return false
	}
}

// Run opens the listener and runs the event loop until shutdown is
// requested or the listener fails. It is the single-threaded cooperative
// core described by spec.md section 4.5/5: one goroutine (this one) is the
// only mutator of Clients/Nicks/Channels; every other goroutine only does
// blocking I/O and hands results back over a channel.
func (s *Server) Run(port int) error {
	ln, err := net.Listen("tcp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return errors.Wrap(err, "unable to listen")
	}

	s.WG.Add(1)
	go s.acceptConnections(ln)

	log.Printf("ircd started on port %d", port)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-s.newClientChan:
			log.Printf("new connection: %s", client)
			s.Clients[client.ID] = client

		case event := <-s.eventChan:
			s.handleEvent(event)

		case <-ticker.C:
			s.checkAndPingClients()

		case <-s.ShutdownChan:
			_ = ln.Close()
			s.teardown()
			s.WG.Wait()
			return nil
		}
	}
}

// handleEvent dispatches one event from a client's goroutines. A client may
// already be gone from the registry by the time its event is processed (for
// example, both readLoop and writeLoop can report the same dead client); in
// that case the event is silently dropped.
func (s *Server) handleEvent(event clientEvent) {
	if _, exists := s.Clients[event.client.ID]; !exists {
		return
	}

	switch event.kind {
	case eventDead:
		s.removeClient(event.client, errorToQuitMessage(event.err))

	case eventOverflow:
		// Buffer-flood guard: disconnect with no reply at all.
		s.dropClient(event.client)

	case eventLine:
		c := event.client
		c.LastActivityTime = time.Now()

		line := event.line
		if line == "" {
			return
		}

		m := parseMessage(line)
		if m.Command == "" {
			return
		}

		s.dispatch(c, m)
		// The handler may have removed the client (QUIT). Nothing below here
		// should assume c is still in the registry.
	}
}

// acceptConnections accepts TCP connections one at a time and hands each one
// off to its own reader/writer goroutine pair, per spec.md section 4.5 step
// 4 ("Acceptance is one connection per iteration by design").
func (s *Server) acceptConnections(ln net.Listener) {
	defer s.WG.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isShuttingDown() {
				return
			}
			log.Printf("accept error: %s", err)
			continue
		}

		s.nextID++
		client := NewClient(s, s.nextID, NewConn(conn, ioWait))

		s.WG.Add(2)
		go client.readLoop()
		go client.writeLoop()

		select {
		case s.newClientChan <- client:
		case <-s.ShutdownChan:
			_ = conn.Close()
			return
		}
	}
}

// checkAndPingClients pings idle registered clients and disconnects clients
// that have been idle for too long, including unregistered ones.
func (s *Server) checkAndPingClients() {
	now := time.Now()

	for _, client := range s.Clients {
		if client.SendQueueExceeded {
			s.dropClient(client)
			continue
		}

		idle := now.Sub(client.LastActivityTime)

		if !client.Registered {
			if idle > idleTimeBeforeDead {
				s.removeClient(client, "Registration timeout")
			}
			continue
		}

		if idle < idleTimeBeforePing {
			continue
		}

		if idle > idleTimeBeforeDead {
			s.removeClient(client,
				fmt.Sprintf("Ping timeout: %d seconds", int(idle.Seconds())))
			continue
		}

		client.maybeQueueMessage(pingMessage(s.Name))
	}
}

// removeClient is the entity store's disconnect path for QUIT, I/O errors,
// idle timeouts and a client-sent prefix; buffer overflow goes through
// dropClient and shutdown through teardown instead. Per spec.md section 4.3: for
// every channel containing the client, if it was registered, broadcast QUIT
// to the remaining members, remove it, and delete the channel if it is now
// empty; then close the socket and drop the client from every registry.
func (s *Server) removeClient(c *Client, reason string) {
	s.partAllChannels(c, reason)

	if c.Nick != "" {
		delete(s.Nicks, c.Nick)
	}
	delete(s.Clients, c.ID)

	c.messageFromServer("ERROR", []string{reason})
	close(c.WriteChan)
	if err := c.Conn.Close(); err != nil {
		log.Printf("client %s: error closing connection: %s", c, err)
	}
}

// dropClient is the buffer-overflow path: spec.md section 4.1 mandates the
// connection is terminated with no reply at all.
func (s *Server) dropClient(c *Client) {
	s.partAllChannels(c, "Buffer overflow")

	if c.Nick != "" {
		delete(s.Nicks, c.Nick)
	}
	delete(s.Clients, c.ID)

	close(c.WriteChan)
	if err := c.Conn.Close(); err != nil {
		log.Printf("client %s: error closing connection: %s", c, err)
	}
}

// partAllChannels removes c from every channel it is in, telling each
// remaining member QUIT exactly once, and deletes any channel this empties.
func (s *Server) partAllChannels(c *Client, reason string) {
	if !c.Registered {
		return
	}

	told := map[uint64]struct{}{}

	for _, ch := range c.Channels {
		for _, member := range ch.Members {
			if member == c {
				continue
			}
			if _, already := told[member.ID]; already {
				continue
			}
			c.messageClient(member, "QUIT", []string{reason})
			told[member.ID] = struct{}{}
		}

		if ch.RemoveMember(c) {
			delete(s.Channels, ch.Name)
		}
	}
}

// teardown disconnects every client and clears every channel, as the final
// step of graceful shutdown (spec.md section 4.5 step 7).
func (s *Server) teardown() {
	for _, c := range s.Clients {
		c.messageFromServer("ERROR", []string{"Server shutting down"})
		close(c.WriteChan)
		_ = c.Conn.Close()
	}
	s.Clients = make(map[uint64]*Client)
	s.Nicks = make(map[string]*Client)
	s.Channels = make(map[string]*Channel)
}

// errorToQuitMessage converts an I/O error observed on a client's connection
// into a human readable QUIT reason.
func errorToQuitMessage(err error) string {
	if err == nil {
		return "I/O error"
	}

	msg := err.Error()
	if msg == "" {
		return "I/O error"
	}

	type timeout interface {
		Timeout() bool
	}
	t, isTimeout := err.(timeout)
	if (isTimeout && t.Timeout()) || strings.Contains(msg, "i/o timeout") {
		return fmt.Sprintf("Ping timeout: %d seconds", int(idleTimeBeforeDead.Seconds()))
	}

	if strings.Contains(msg, "connection reset by peer") {
		return "Connection reset by peer"
	}

	return msg
}
