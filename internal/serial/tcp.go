package serial

import (
	"io"
	"log/slog"
	"net"
)

// TCPTransport exchanges bytes over a single TCP connection, either
// accepted from a --listen address or dialed to a --connect address.
// --no-response downgrades it to fire-and-forget: outgoing bytes are
// still sent, but Exchange never waits on or applies an echoed byte.
type TCPTransport struct {
	conn       net.Conn
	inbox      chan uint8
	noResponse bool
}

// Listen blocks accepting a single peer connection on addr, then returns a
// transport wired to it.
func Listen(addr string, noResponse bool) (*TCPTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()

	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	return newTCPTransport(conn, noResponse), nil
}

// Dial connects to a peer already listening at addr.
func Dial(addr string, noResponse bool) (*TCPTransport, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return newTCPTransport(conn, noResponse), nil
}

func newTCPTransport(conn net.Conn, noResponse bool) *TCPTransport {
	t := &TCPTransport{conn: conn, inbox: make(chan uint8, inboxSize), noResponse: noResponse}
	if !noResponse {
		go t.readLoop()
	}
	return t
}

func (t *TCPTransport) readLoop() {
	buf := make([]byte, 1)
	for {
		if _, err := t.conn.Read(buf); err != nil {
			if err != io.EOF {
				slog.Warn("serial tcp transport disconnected", "error", err)
			}
			return
		}
		select {
		case t.inbox <- buf[0]:
		default:
			slog.Debug("serial tcp transport inbox full, dropping byte")
		}
	}
}

// Exchange sends out over the connection and returns the oldest buffered
// reply, or 0xFF if --no-response is set or none has arrived yet.
func (t *TCPTransport) Exchange(out uint8) uint8 {
	if _, err := t.conn.Write([]byte{out}); err != nil {
		slog.Warn("serial tcp transport write failed", "error", err)
	}

	if t.noResponse {
		return 0xFF
	}

	select {
	case b := <-t.inbox:
		return b
	default:
		return 0xFF
	}
}

func (t *TCPTransport) Close() error { return t.conn.Close() }
