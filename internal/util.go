package internal

import (
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/horgh/irc"
)

// MessageIsEqual fails the test if got does not match wanted exactly.
func MessageIsEqual(t *testing.T, got, wanted *irc.Message) {
	if got == nil {
		t.Fatalf("received nil message")
	}

	if got.Prefix != wanted.Prefix {
		t.Fatalf("message prefix = %s, wanted %s", got.Prefix, wanted.Prefix)
	}

	if got.Command != wanted.Command {
		t.Fatalf("message command = %s, wanted %s", got.Command, wanted.Command)
	}

	if len(got.Params) != len(wanted.Params) {
		t.Fatalf("message number of params = %d, wanted %d", len(got.Params),
			len(wanted.Params))
	}

	for i := range wanted.Params {
		if got.Params[i] != wanted.Params[i] {
			t.Fatalf("param %d = %s, wanted %s", i, got.Params[i], wanted.Params[i])
		}
	}
}

// WaitForMessage reads from ch until a message with the wanted command
// arrives or the wait times out, in which case it returns nil.
func WaitForMessage(
	t *testing.T,
	ch <-chan irc.Message,
	want irc.Message,
	format string,
	a ...interface{},
) *irc.Message {
	for {
		select {
		case <-time.After(10 * time.Second):
			t.Logf("timeout waiting for message: %s", want)
			return nil
		case got := <-ch:
			if got.Command == want.Command {
				log.Printf("got command: %s", fmt.Sprintf(format, a...))
				return &got
			}
		}
	}
}
