package ipc

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/chisel-build/chisel/iox"
	"github.com/chisel-build/chisel/log"
	"github.com/chisel-build/chisel/types"
	"github.com/chisel-build/chisel/wire"
)

// readTimeout bounds how long the collector waits for a reporter to
// deliver its single envelope. Reporters write immediately after
// connecting, so a stalled connection is abandoned rather than holding
// a handler goroutine for the rest of the build.
const readTimeout = 30 * time.Second

// Collector owns the listener socket and forwards one envelope per
// accepted connection to a single-consumer channel.
//
// The channel handed to Collect should be bounded: when the consumer is
// slow, in-flight handlers block on the send, which is preferable to
// unbounded memory use. The reporter side holds no other lock, so this
// cannot deadlock.
type Collector struct {
	listener net.Listener
	logger   *log.Logger

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewCollector binds a loopback listener on an ephemeral port.
func NewCollector(logger *log.Logger) (*Collector, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("cannot bind collector listener: %w", err)
	}
	return &Collector{
		listener: listener,
		logger:   logger,
		stopped:  make(chan struct{}),
	}, nil
}

// Address returns the collector's host:port address.
func (c *Collector) Address() string {
	return c.listener.Addr().String()
}

// Collect accepts connections until Stop is called, forwarding each
// received envelope to destination. In-flight connections are drained
// before Collect returns. The destination channel is closed on return,
// signaling the consumer that no more envelopes arrive.
func (c *Collector) Collect(destination chan<- types.Envelope) error {
	var handlers sync.WaitGroup
	defer func() {
		handlers.Wait()
		close(destination)
	}()

	for {
		conn, err := c.listener.Accept()
		if err != nil {
			select {
			case <-c.stopped:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		handlers.Add(1)
		go func(conn net.Conn) {
			defer handlers.Done()
			defer iox.DiscardClose(conn)
			c.receive(conn, destination)
		}(conn)
	}
}

// receive reads exactly one envelope from the connection and forwards it.
// Wire errors are logged and the envelope is discarded; a broken reporter
// must never break the collection of the others.
func (c *Collector) receive(conn net.Conn, destination chan<- types.Envelope) {
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	envelope, err := wire.NewEnvelopeReader(conn).Read()
	if err != nil {
		c.logger.Error("failed to read envelope", map[string]any{
			"remote": conn.RemoteAddr().String(),
			"error":  err.Error(),
		})
		return
	}
	destination <- *envelope
}

// Stop makes the accept loop exit. Safe to call more than once and from
// a different goroutine than Collect.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopped)
		_ = c.listener.Close()
	})
}
