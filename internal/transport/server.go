// Package transport implements T_net (spec.md §5): the TCP reactor
// that accepts connections, frames lines in and out, and is the single
// collaborator that touches raw sockets. One goroutine serves each
// connection; apart from starting and ending that connection's session
// in the registry, all state mutation happens downstream, through tasks
// enqueued onto the shared task queue and executed by the dispatcher.
//
// Grounded on the teacher's internal/node/stream_handler.go: a
// component logger, a per-connection goroutine reading framed input,
// and google/uuid for opaque per-connection identifiers — adapted from
// libp2p streams and length-prefixed JSON framing to a plain TCP
// net.Conn and the line-oriented protocol spec.md §6 specifies.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/forgehouse/auctiond/internal/command"
	"github.com/forgehouse/auctiond/internal/queue"
	"github.com/forgehouse/auctiond/internal/session"
	"github.com/forgehouse/auctiond/internal/worker"
	"github.com/forgehouse/auctiond/pkg/logging"
)

// Server is the TCP reactor. It owns the listener and the registry of
// live connections; it never touches the ledger or book directly.
// Besides starting and ending each connection's session in the
// registry, every effect is a task handed to the queue.
type Server struct {
	listener net.Listener
	sessions *session.Registry
	queue    *queue.Queue
	cmdCtx   command.Context
	log      *logging.Logger

	mu    sync.Mutex
	conns map[session.ConnectionID]net.Conn

	wg      sync.WaitGroup
	closing atomic.Bool
}

// Listen binds addr and returns a Server ready to Serve.
func Listen(addr string, sessions *session.Registry, q *queue.Queue, cmdCtx command.Context) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	return &Server{
		listener: ln,
		sessions: sessions,
		queue:    q,
		cmdCtx:   cmdCtx,
		log:      logging.GetDefault().Component("transport"),
		conns:    make(map[session.ConnectionID]net.Conn),
	}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until Close is called. It blocks; callers
// run it in its own goroutine.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() {
				return
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}

		s.wg.Add(1)
		go s.handle(conn)
	}
}

// Close stops accepting new connections and waits for every
// in-flight connection goroutine to finish.
func (s *Server) Close() error {
	s.closing.Store(true)
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	connID := uuid.New().String()
	s.register(connID, conn)

	sid := s.sessions.NextID()
	s.sessions.StartSession(sid, connID)
	defer s.sessions.EndSession(sid)
	defer func() {
		s.unregister(connID)
		s.log.Info("connection closed", "conn", connID, "session", sid, "connections", s.ConnectionCount())
	}()

	s.log.Info("connection accepted", "conn", connID, "session", sid, "connections", s.ConnectionCount())

	// Unsolicited HELP on connect (spec.md §6), routed through the
	// dispatcher like any other response so writes to this connection
	// stay serialized through a single writer.
	s.queue.Enqueue(worker.CommandTask{Ctx: s.cmdCtx, SessionID: sid, Cmd: command.Help{}})

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		cmd := command.Parse(line)
		s.queue.Enqueue(worker.CommandTask{Ctx: s.cmdCtx, SessionID: sid, Cmd: cmd})
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Debug("connection read error", "conn", connID, "error", err)
	}
}

func (s *Server) register(connID session.ConnectionID, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[connID] = conn
}

func (s *Server) unregister(connID session.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, connID)
}

// Send writes text to the connection backing connID, framed per
// spec.md §6. It implements worker.Sender. A connection that has
// already closed is a no-op: the notification is simply undeliverable.
func (s *Server) Send(connID session.ConnectionID, text string) error {
	s.mu.Lock()
	conn, ok := s.conns[connID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	_, err := fmt.Fprintf(conn, "RESP>> %s\nCMD>>\n", text)
	return err
}

// ConnectionCount reports the number of currently tracked connections,
// for metrics and the startup/shutdown banner.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
