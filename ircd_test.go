package main

import "testing"

func TestIsValidNick(t *testing.T) {
	tests := []struct {
		Input string
		Valid bool
	}{
		{"hi", true},

		// - is a special character, allowed in first position.
		{"-hi", true},

		// Digits can't be in first position.
		{"0hi", false},
		{"9hi", false},

		{"hi_there", true},
		{"hi_there19", true},

		{"[HiThere]", true},
		{"hi`", false},

		{"", false},
	}

	for _, test := range tests {
		out := isValidNick(test.Input)
		if out != test.Valid {
			t.Errorf("isValidNick(%s) = %v, wanted %v", test.Input, out, test.Valid)
		}
	}
}

func TestIsValidChannel(t *testing.T) {
	tests := []struct {
		Input string
		Valid bool
	}{
		{"#a", true},
		{"#general", true},

		// Must start with #.
		{"general", false},
		{"", false},

		// No spaces or commas.
		{"#a b", false},
		{"#a,b", false},
	}

	for _, test := range tests {
		out := isValidChannel(test.Input)
		if out != test.Valid {
			t.Errorf("isValidChannel(%s) = %v, wanted %v", test.Input, out, test.Valid)
		}
	}
}

func TestApplyChannelModes(t *testing.T) {
	s := NewServer("irc.example.com", "hunter2")
	op := NewClient(s, 1, Conn{IP: "127.0.0.1"})
	op.Nick = "op"
	other := NewClient(s, 2, Conn{IP: "127.0.0.1"})
	other.Nick = "other"
	s.Nicks["op"] = op
	s.Nicks["other"] = other

	ch := NewChannel("#test")
	ch.AddMember(op)
	ch.AddMember(other)
	ch.Operators[op.ID] = struct{}{}

	applyChannelModes(s, ch, "+i", nil)
	if !ch.InviteOnly {
		t.Errorf("+i did not set InviteOnly")
	}

	applyChannelModes(s, ch, "-i", nil)
	if ch.InviteOnly {
		t.Errorf("-i did not clear InviteOnly")
	}

	applyChannelModes(s, ch, "+k", []string{"secret"})
	if ch.Key != "secret" {
		t.Errorf("+k secret did not set Key, got %q", ch.Key)
	}

	// -k consumes no argument, per the resolved Open Question.
	applyChannelModes(s, ch, "-k", []string{"other"})
	if ch.Key != "" {
		t.Errorf("-k did not clear Key")
	}

	applyChannelModes(s, ch, "+l", []string{"5"})
	if ch.Limit != 5 {
		t.Errorf("+l 5 did not set Limit, got %d", ch.Limit)
	}

	applyChannelModes(s, ch, "-l", nil)
	if ch.Limit != 0 {
		t.Errorf("-l did not clear Limit")
	}

	applyChannelModes(s, ch, "+o", []string{"other"})
	if !ch.IsOperator(other) {
		t.Errorf("+o other did not grant operator")
	}

	applyChannelModes(s, ch, "-o", []string{"other"})
	if ch.IsOperator(other) {
		t.Errorf("-o other did not revoke operator")
	}

	// A non-member target is silently ignored.
	applyChannelModes(s, ch, "+o", []string{"nobody"})
	if len(ch.Operators) != 1 {
		t.Errorf("+o on a non-member changed Operators: %v", ch.Operators)
	}
}
