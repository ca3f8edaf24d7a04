package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"

	"go4.org/netipx"
)

// Listen opens the API listener. A non-empty address is a TCP listen
// address whose clients are checked against allowed; otherwise the API is
// served on the unix socket.
func Listen(socket, address string, allowed *netipx.IPSet, logger *slog.Logger) (net.Listener, error) {
	if address != "" {
		l, err := net.Listen("tcp", address)
		if err != nil {
			return nil, err
		}

		return &allowListener{Listener: l, allowed: allowed, logger: logger}, nil
	}

	// A stale socket from a previous run would make Listen fail.
	if err := os.Remove(socket); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}

	return net.Listen("unix", socket)
}

// allowListener drops connections from addresses outside allowed.
type allowListener struct {
	net.Listener
	allowed *netipx.IPSet
	logger  *slog.Logger
}

func (l *allowListener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}

		addr, ok := remoteAddr(conn)
		if ok && l.allowed.Contains(addr) {
			return conn, nil
		}

		l.logger.Warn("rejecting client", "addr", conn.RemoteAddr())
		conn.Close()
	}
}

func remoteAddr(conn net.Conn) (netip.Addr, bool) {
	tcp, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return netip.Addr{}, false
	}

	return tcp.AddrPort().Addr().Unmap(), true
}
