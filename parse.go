package main

import (
	"strings"

	"github.com/horgh/irc"
)

// parseMessage decomposes a single trimmed, non-empty line into a message
// record: an optional prefix, an uppercased command token, and an ordered
// parameter list honoring the trailing-":" rule.
//
// Unlike irc.ParseMessage (which expects a CRLF-terminated line and returns
// an error on anything malformed), this is total: any non-empty line
// produces a record. It performs no validation of the command name or
// parameter count -- that is the dispatcher's job, so it can emit the
// correct numeric reply.
func parseMessage(line string) irc.Message {
	var m irc.Message

	if line == "" {
		return m
	}

	pos := 0

	if line[0] == ':' {
		end := strings.IndexByte(line, ' ')
		if end == -1 {
			m.Prefix = line[1:]
			return m
		}
		m.Prefix = line[1:end]
		pos = end + 1
	}

	for pos < len(line) && line[pos] == ' ' {
		pos++
	}

	cmdStart := pos
	for pos < len(line) && line[pos] != ' ' {
		pos++
	}
	m.Command = strings.ToUpper(line[cmdStart:pos])

	var params []string
	for {
		for pos < len(line) && line[pos] == ' ' {
			pos++
		}
		if pos >= len(line) {
			break
		}

		if line[pos] == ':' {
			params = append(params, line[pos+1:])
			break
		}

		start := pos
		for pos < len(line) && line[pos] != ' ' {
			pos++
		}
		params = append(params, line[start:pos])
	}

	m.Params = params
	return m
}
