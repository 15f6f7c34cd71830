package dispatch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
)

// SocketAck is the line the socket service answers a successful command with.
const SocketAck = "OK\n"

// SocketTransport speaks the line protocol: one TCP connection per command,
// "command\n" out, "OK\n" back.
type SocketTransport struct {
	addr   string
	dialer net.Dialer
}

// NewSocketTransport creates a transport for the service at addr (host:port).
func NewSocketTransport(addr string) *SocketTransport {
	return &SocketTransport{addr: addr}
}

// Send delivers one command and checks the acknowledgement line.
func (s *SocketTransport) Send(ctx context.Context, command string) error {
	conn, err := s.dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}
	}

	if _, err := io.WriteString(conn, command+"\n"); err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && resp == "" {
		return fmt.Errorf("read ack: %w", err)
	}
	if resp != SocketAck {
		return fmt.Errorf("%w: %q", ErrNotAcknowledged, strings.TrimSpace(resp))
	}
	return nil
}
