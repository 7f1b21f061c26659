package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	args := getArgs()
	if args == nil {
		os.Exit(1)
	}

	// SIGPIPE would otherwise kill the process on a write to an already-closed
	// socket; we handle that as a normal write error instead.
	signal.Ignore(syscall.SIGPIPE)

	server := NewServer("ircd", args.Password)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("received signal %s, shutting down", sig)
		close(server.ShutdownChan)
	}()

	if err := server.Run(args.Port); err != nil {
		log.Printf("server error: %s", err)
		os.Exit(1)
	}
}
