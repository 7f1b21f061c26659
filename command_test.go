package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(s *Server, id uint64, nick string) *Client {
	c := NewClient(s, id, Conn{IP: "127.0.0.1"})
	c.Nick = nick
	return c
}

func registerClient(s *Server, c *Client, password, nick, user string) {
	s.dispatch(c, parseMessage("PASS "+password))
	s.dispatch(c, parseMessage("NICK "+nick))
	s.dispatch(c, parseMessage("USER "+user+" 0 * :Real Name"))
}

// recvCommand requires a message to already be queued on the client's
// WriteChan and returns its command.
func recvCommand(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case m := <-c.WriteChan:
		return m.Command
	default:
		require.Fail(t, "expected a queued message, found none", "client %s", c)
		return ""
	}
}

func TestRegistrationFlow(t *testing.T) {
	s := NewServer("irc.example.com", "hunter2")
	c := NewClient(s, 1, Conn{IP: "127.0.0.1"})
	s.Clients[c.ID] = c

	registerClient(s, c, "hunter2", "alice", "alice")

	require.True(t, c.Registered, "client should be Registered after PASS/NICK/USER")
	require.Equal(t, c, s.Nicks["alice"], "client should be indexed by nick after NICK")

	// Welcome burst: 001, 002, 003, 004.
	for _, want := range []string{"001", "002", "003", "004"} {
		require.Equal(t, want, recvCommand(t, c), "welcome burst")
	}
}

func TestPassWrongPassword(t *testing.T) {
	s := NewServer("irc.example.com", "hunter2")
	c := NewClient(s, 1, Conn{IP: "127.0.0.1"})
	s.Clients[c.ID] = c

	s.dispatch(c, parseMessage("PASS wrong"))
	require.False(t, c.Authenticated, "client should not authenticate with the wrong password")
	require.Equal(t, "464", recvCommand(t, c))
}

func TestNickCollision(t *testing.T) {
	s := NewServer("irc.example.com", "hunter2")
	c1 := newTestClient(s, 1, "alice")
	c2 := NewClient(s, 2, Conn{IP: "127.0.0.1"})
	s.Clients[c1.ID] = c1
	s.Clients[c2.ID] = c2
	s.Nicks["alice"] = c1

	s.dispatch(c2, parseMessage("NICK alice"))

	require.Equal(t, "433", recvCommand(t, c2))
}

func TestJoinInviteOnlyRequiresInvite(t *testing.T) {
	s := NewServer("irc.example.com", "hunter2")
	op := newTestClient(s, 1, "op")
	op.Registered = true
	other := newTestClient(s, 2, "other")
	other.Registered = true
	s.Clients[op.ID] = op
	s.Clients[other.ID] = other
	s.Nicks["op"] = op
	s.Nicks["other"] = other

	s.dispatch(op, parseMessage("JOIN #test"))
	for len(op.WriteChan) > 0 {
		<-op.WriteChan
	}

	ch := s.Channels["#test"]
	ch.InviteOnly = true

	s.dispatch(other, parseMessage("JOIN #test"))
	require.Equal(t, "473", recvCommand(t, other))

	ch.Invited[other.ID] = struct{}{}
	s.dispatch(other, parseMessage("JOIN #test"))
	require.True(t, ch.HasMember(other), "invited client should join an invite-only channel")
}

func TestKickRequiresOperator(t *testing.T) {
	s := NewServer("irc.example.com", "hunter2")
	op := newTestClient(s, 1, "op")
	op.Registered = true
	member := newTestClient(s, 2, "member")
	member.Registered = true
	target := newTestClient(s, 3, "target")
	target.Registered = true
	s.Clients[op.ID] = op
	s.Clients[member.ID] = member
	s.Clients[target.ID] = target
	s.Nicks["op"] = op
	s.Nicks["member"] = member
	s.Nicks["target"] = target

	s.dispatch(op, parseMessage("JOIN #test"))
	s.dispatch(member, parseMessage("JOIN #test"))
	s.dispatch(target, parseMessage("JOIN #test"))
	for _, c := range []*Client{op, member, target} {
		for len(c.WriteChan) > 0 {
			<-c.WriteChan
		}
	}

	// member is not an operator, so the kick is rejected.
	s.dispatch(member, parseMessage("KICK #test target"))
	require.Equal(t, "482", recvCommand(t, member))

	ch := s.Channels["#test"]
	require.True(t, ch.HasMember(target), "target should not be removed by a non-operator's KICK")

	s.dispatch(op, parseMessage("KICK #test target :bye"))
	require.False(t, ch.HasMember(target), "operator's KICK should remove target")
}

func TestPrivmsgUnknownNick(t *testing.T) {
	s := NewServer("irc.example.com", "hunter2")
	c := newTestClient(s, 1, "alice")
	c.Registered = true
	s.Clients[c.ID] = c
	s.Nicks["alice"] = c

	s.dispatch(c, parseMessage("PRIVMSG bob :hi"))

	require.Equal(t, "401", recvCommand(t, c))
}

func TestUnknownCommand(t *testing.T) {
	s := NewServer("irc.example.com", "hunter2")
	c := newTestClient(s, 1, "alice")
	c.Registered = true
	s.Clients[c.ID] = c

	s.dispatch(c, parseMessage("BOGUS foo"))

	require.Equal(t, "421", recvCommand(t, c))
}
