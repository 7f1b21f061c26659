package main

import (
	"reflect"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		input   string
		command string
		params  []string
		prefix  string
	}{
		{
			input:   "NICK foo",
			command: "NICK",
			params:  []string{"foo"},
		},
		{
			input:   "USER a 0 * :Real Name",
			command: "USER",
			params:  []string{"a", "0", "*", "Real Name"},
		},
		{
			input:   "PRIVMSG #test :hi there",
			command: "PRIVMSG",
			params:  []string{"#test", "hi there"},
		},
		{
			input:   ":nick!user@host PRIVMSG #test :hi",
			command: "PRIVMSG",
			params:  []string{"#test", "hi"},
			prefix:  "nick!user@host",
		},
		{
			input:   "QUIT",
			command: "QUIT",
			params:  nil,
		},
		{
			input:   "join #test",
			command: "JOIN",
			params:  []string{"#test"},
		},
	}

	for _, test := range tests {
		m := parseMessage(test.input)
		if m.Command != test.command {
			t.Errorf("parseMessage(%q).Command = %q, wanted %q", test.input,
				m.Command, test.command)
		}
		if m.Prefix != test.prefix {
			t.Errorf("parseMessage(%q).Prefix = %q, wanted %q", test.input,
				m.Prefix, test.prefix)
		}
		if !reflect.DeepEqual(m.Params, test.params) {
			t.Errorf("parseMessage(%q).Params = %v, wanted %v", test.input,
				m.Params, test.params)
		}
	}
}

func TestParseMessageEmpty(t *testing.T) {
	m := parseMessage("")
	if m.Command != "" {
		t.Errorf("parseMessage(\"\").Command = %q, wanted empty", m.Command)
	}
}
