// Package ipc implements the local transport between the short-lived
// reporter processes and the long-lived collector in the supervisor.
//
// The channel is a loopback TCP socket. A reporter connects, writes
// exactly one length-prefixed envelope and closes the connection. The
// collector accepts connections concurrently, reads one envelope per
// connection and forwards it to an in-process consumer.
package ipc

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/chisel-build/chisel/iox"
	"github.com/chisel-build/chisel/types"
	"github.com/chisel-build/chisel/wire"
)

// dialTimeout bounds how long a reporter waits for the collector. The
// collector runs on the same host, so anything longer signals that the
// build outlived the supervisor.
const dialTimeout = 5 * time.Second

// Reporter is the remote sink of supervised process events.
type Reporter interface {
	Report(event types.Event) error
}

// TCPReporter sends events to the collector over loopback TCP. The
// connection is opened and closed for each event.
type TCPReporter struct {
	destination string
	rid         types.ReporterId
}

// NewTCPReporter creates a reporter for the given host:port destination.
// It does not open the connection yet; it stores the destination and
// generates the reporter id.
func NewTCPReporter(destination string) (*TCPReporter, error) {
	if destination == "" {
		return nil, fmt.Errorf("collector address is empty")
	}
	return &TCPReporter{
		destination: destination,
		rid:         types.NewReporterId(),
	}, nil
}

// NewTCPReporterFromEnv creates a reporter using the collector address
// found in the well-known environment variable.
func NewTCPReporterFromEnv() (*TCPReporter, error) {
	destination := os.Getenv(types.KeyDestination)
	if destination == "" {
		return nil, fmt.Errorf("$%s is missing from the environment", types.KeyDestination)
	}
	return NewTCPReporter(destination)
}

// Report wraps the event in an envelope and sends it to the collector.
// The write is synchronous: the caller may exec the real tool as soon as
// this returns.
func (r *TCPReporter) Report(event types.Event) error {
	conn, err := net.DialTimeout("tcp", r.destination, dialTimeout)
	if err != nil {
		return fmt.Errorf("cannot connect to collector at %s: %w", r.destination, err)
	}
	defer iox.DiscardClose(conn)

	envelope := types.NewEnvelope(r.rid, event)
	if _, err := wire.WriteEnvelope(conn, &envelope); err != nil {
		return fmt.Errorf("sending execution failed: %w", err)
	}
	return nil
}
