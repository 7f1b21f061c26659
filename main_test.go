package main

import (
	"fmt"
	"testing"
)

func TestErrorToQuitMessage(t *testing.T) {
	tests := []struct {
		Error  error
		Output string
	}{
		{
			nil,
			"I/O error",
		},
		{
			fmt.Errorf("blah"),
			"blah",
		},
		{
			fmt.Errorf(""),
			"I/O error",
		},
		{
			fmt.Errorf("hi : "),
			"hi : ",
		},
		{
			fmt.Errorf("read tcp ip:port->ip:port: i/o timeout"),
			"Ping timeout: 240 seconds",
		},
		{
			fmt.Errorf("read tcp ip:port->ip:port: read: connection reset by peer"),
			"Connection reset by peer",
		},
	}

	for _, test := range tests {
		output := errorToQuitMessage(test.Error)
		if output != test.Output {
			t.Errorf("errorToQuitMessage(%v) = %s, wanted %s", test.Error, output,
				test.Output)
		}
	}
}
