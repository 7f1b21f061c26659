package main

import (
	"fmt"
	"log"
	"time"

	"github.com/horgh/irc"
)

// Client holds state about a single connected peer. There is exactly one
// client representation regardless of registration state; spec.md's
// Fresh/Authenticated/Registered state machine is recomputed from the
// Authenticated/Nick/User fields rather than tracked as a separate enum.
type Client struct {
	// Conn holds the TCP connection to the client.
	Conn Conn

	// WriteChan is the channel the server sends to in order to write to the
	// client. It is drained by writeLoop. Buffered so a slow client does not
	// block the server's single state-owning goroutine.
	WriteChan chan irc.Message

	// A unique id, internal to this server only. Stable across the client's
	// lifetime; used as the non-owning reference channels keep into a client.
	ID uint64

	// Server references the server this client is connected to.
	Server *Server

	// RemoteHost is the peer's IP in dotted decimal, or "unknown".
	RemoteHost string

	// Authenticated is set by a correct PASS.
	Authenticated bool

	// Nick is empty until NICK succeeds. Not canonicalized; nickname lookup
	// is case-sensitive per spec.md section 4.3.
	Nick string

	// User and RealName are set by USER.
	User     string
	RealName string

	// Registered becomes true iff Authenticated && Nick != "" && User != "".
	// WelcomeSent is the idempotency latch on the welcome burst.
	Registered  bool
	WelcomeSent bool

	// SendQueueExceeded is set when a non-blocking send to WriteChan would
	// have blocked. The client is disconnected at the next opportunity.
	SendQueueExceeded bool

	// Channels the client is a member of, keyed by channel name.
	Channels map[string]*Channel

	// reassembler is this client's inbound line buffer. Only readLoop touches
	// it.
	reassembler LineBuffer

	LastActivityTime time.Time
	LastPingTime     time.Time
}

// NewClient creates a Client in the Fresh state.
func NewClient(s *Server, id uint64, conn Conn) *Client {
	now := time.Now()

	return &Client{
		Conn:             conn,
		WriteChan:        make(chan irc.Message, 256),
		ID:               id,
		Server:           s,
		RemoteHost:       conn.IP,
		Channels:         make(map[string]*Channel),
		LastActivityTime: now,
		LastPingTime:     now,
	}
}

func (c *Client) String() string {
	return fmt.Sprintf("%d %s!%s@%s", c.ID, c.Nick, c.User, c.RemoteHost)
}

// prefix is the stable nick!user@host identifier used when this client is
// the source of a relayed message.
func (c *Client) prefix() string {
	return fmt.Sprintf("%s!%s@%s", c.Nick, c.User, c.RemoteHost)
}

// maybeQueueMessage sends a message to the client's write channel without
// blocking. If the channel is full, the client is flagged for disconnection
// instead of stalling the server's single state-owning goroutine.
func (c *Client) maybeQueueMessage(m irc.Message) {
	select {
	case c.WriteChan <- m:
	default:
		c.SendQueueExceeded = true
	}
}

// messageFromServer sends a message to the client as if from the server. For
// numeric replies, the nick (or "*" if it has none yet) is prepended, per
// RFC 1459 section 2.4's reply format.
func (c *Client) messageFromServer(command string, params []string) {
	if isNumericCommand(command) {
		nick := c.Nick
		if nick == "" {
			nick = "*"
		}
		newParams := make([]string, 0, len(params)+1)
		newParams = append(newParams, nick)
		newParams = append(newParams, params...)
		params = newParams
	}

	c.maybeQueueMessage(irc.Message{
		Prefix:  c.Server.Name,
		Command: command,
		Params:  params,
	})
}

// messageClient sends a message to another client, sourced from this
// client's prefix.
func (c *Client) messageClient(to *Client, command string, params []string) {
	to.maybeQueueMessage(irc.Message{
		Prefix:  c.prefix(),
		Command: command,
		Params:  params,
	})
}

func isNumericCommand(command string) bool {
	if len(command) != 3 {
		return false
	}
	for _, c := range command {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// readLoop reads raw bytes off the socket, reassembles them into whole
// lines, and forwards each line to the server's single state-owning
// goroutine as an event. It never mutates server state directly -- that
// would violate the single-mutator guarantee in spec.md section 5.
func (c *Client) readLoop() {
	defer c.Server.WG.Done()

	buf := make([]byte, 512)

	for {
		n, err := c.Conn.ReadChunk(buf)
		if err != nil {
			c.Server.newEvent(clientEvent{kind: eventDead, client: c, err: err})
			break
		}

		c.reassembler.Append(buf[:n])

		for {
			line, ok := c.reassembler.TakeLine()
			if !ok {
				break
			}
			c.Server.newEvent(clientEvent{kind: eventLine, client: c, line: line})
		}

		if c.reassembler.Overflowed() {
			c.Server.newEvent(clientEvent{kind: eventOverflow, client: c})
			break
		}
	}

	log.Printf("client %s: reader shutting down", c)
}

// writeLoop drains the client's write channel, encoding and writing each
// message to the socket.
func (c *Client) writeLoop() {
	defer c.Server.WG.Done()

	for message := range c.WriteChan {
		if err := c.Conn.WriteMessage(message); err != nil {
			c.Server.newEvent(clientEvent{kind: eventDead, client: c, err: err})
			break
		}
	}

	log.Printf("client %s: writer shutting down", c)
}
