package main

import "strconv"

// Channel holds everything to do with a channel.
//
// Members is kept in insertion order so NAMES output is stable and matches
// join order, not map iteration order.
type Channel struct {
	// Name, including the leading '#'. Case-sensitive, never canonicalized.
	Name string

	// Members in join order. A client appears at most once.
	Members []*Client

	// Operators, a subset of Members, keyed by client ID.
	Operators map[uint64]struct{}

	// Invited holds clients eligible to bypass invite-only, keyed by client
	// ID. A client is removed from this set as soon as it successfully JOINs.
	Invited map[uint64]struct{}

	// Topic. May be blank, meaning unset.
	Topic string

	// Mode flags.
	InviteOnly      bool
	TopicRestricted bool

	// Key is the channel password set by mode +k. Blank means unset.
	Key string

	// Limit is the user-count limit set by mode +l. 0 means unset.
	Limit int
}

// NewChannel makes an empty channel with the given name.
func NewChannel(name string) *Channel {
	return &Channel{
		Name:      name,
		Operators: make(map[uint64]struct{}),
		Invited:   make(map[uint64]struct{}),
	}
}

// HasMember reports whether the client is a member of the channel.
func (c *Channel) HasMember(client *Client) bool {
	for _, m := range c.Members {
		if m == client {
			return true
		}
	}
	return false
}

// AddMember appends a new member. It does not check for duplicates; callers
// must check HasMember first.
func (c *Channel) AddMember(client *Client) {
	c.Members = append(c.Members, client)
}

// RemoveMember removes a member, its operator status, and its invite, if
// present. Reports whether the channel is now empty.
func (c *Channel) RemoveMember(client *Client) bool {
	for i, m := range c.Members {
		if m == client {
			c.Members = append(c.Members[:i], c.Members[i+1:]...)
			break
		}
	}
	delete(c.Operators, client.ID)
	delete(c.Invited, client.ID)
	return len(c.Members) == 0
}

// IsOperator reports whether the client is a channel operator.
func (c *Channel) IsOperator(client *Client) bool {
	_, exists := c.Operators[client.ID]
	return exists
}

// IsInvited reports whether the client is on the invite list.
func (c *Channel) IsInvited(client *Client) bool {
	_, exists := c.Invited[client.ID]
	return exists
}

// modeString renders the active mode flags and their arguments, for
// RPL_CHANNELMODEIS (324).
func (c *Channel) modeString() (string, []string) {
	modes := "+"
	var args []string

	if c.InviteOnly {
		modes += "i"
	}
	if c.TopicRestricted {
		modes += "t"
	}
	if c.Key != "" {
		modes += "k"
		args = append(args, c.Key)
	}
	if c.Limit > 0 {
		modes += "l"
		args = append(args, strconv.Itoa(c.Limit))
	}

	return modes, args
}
