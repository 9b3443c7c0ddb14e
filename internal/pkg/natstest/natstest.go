// Package natstest runs an embedded NATS server for adapter tests.
package natstest

import (
	"errors"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
)

// Start runs a server on a random local port. Callers shut it down with
// Shutdown and WaitForShutdown.
func Start() (*natsserver.Server, error) {
	opts := &natsserver.Options{
		Host:           "127.0.0.1",
		Port:           -1,
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 2048,
	}

	server, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, err
	}

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		server.Shutdown()
		return nil, errors.New("nats server not ready")
	}
	return server, nil
}
