// Package net is a TCP ingress/egress adapter: a wire protocol translating
// bytes to exchange.Core commands and matcher events back to clients over
// per-user sessions, a worker pool reading connections, all supervised by
// a tomb.Tomb. Generalized from a 3-message NewOrder/CancelOrder/Heartbeat
// surface to the full command vocabulary (internal/net/messages.go); kept
// as a runnable producer/consumer for the exchange core, not part of its
// matching/risk semantics.
package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchcore/internal/common"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers     = 10
	defaultConnTimeout  = time.Second
	taskChanSize        = 100
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// workerFunc processes one task (a net.Conn) under supervision of t.
type workerFunc = func(t *tomb.Tomb, task any) error

// workerPool is a fixed-size pool of tomb-supervised goroutines pulling
// tasks from a shared channel, folded directly into this package rather
// than left in a separate utils package.
type workerPool struct {
	n     int
	tasks chan any
	work  workerFunc
}

func newWorkerPool(size int) workerPool {
	return workerPool{tasks: make(chan any, taskChanSize), n: size}
}

func (pool *workerPool) AddTask(task any) {
	pool.tasks <- task
}

func (pool *workerPool) Setup(t *tomb.Tomb, work workerFunc) {
	log.Info().Int("activeWorkers", pool.n).Msg("adding workers")
	activeWorkers := 0
	for {
		select {
		case <-t.Dying():
			return
		default:
			if activeWorkers < pool.n {
				t.Go(func() error {
					err := pool.worker(t, work)
					activeWorkers--
					return err
				})
				activeWorkers++
			}
		}
	}
}

func (pool *workerPool) worker(t *tomb.Tomb, work workerFunc) error {
	select {
	case <-t.Dying():
		return nil
	case task := <-pool.tasks:
		if err := work(t, task); err != nil {
			log.Error().Err(err).Msg("worker exiting")
			return err
		}
	}
	return nil
}

// ClientSession is an individual connected TCP session, tracked by uid:
// every message received on the connection registers it under the uid that
// message names.
type ClientSession struct {
	conn net.Conn
}

type clientMessage struct {
	conn    net.Conn
	message Message
}

// Engine is the subset of exchange.Core the server depends on.
type Engine interface {
	SubmitCommand(cmd *common.Command)
}

type Server struct {
	address string
	port    int
	engine  Engine
	pool    workerPool
	cancel  context.CancelFunc

	sessionsLock sync.Mutex
	sessions     map[common.UserId]ClientSession

	messages chan clientMessage
}

// New constructs a Server fronting engine on address:port.
func New(address string, port int, engine Engine) *Server {
	return &Server{
		address:  address,
		port:     port,
		engine:   engine,
		pool:     newWorkerPool(defaultNWorkers),
		sessions: make(map[common.UserId]ClientSession),
		messages: make(chan clientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}
			log.Info().Str("address", conn.RemoteAddr().String()).Msg("new client connected")
			s.pool.AddTask(conn)
		}
	}
}

// HandleResult is installed as the exchange core's result consumer; it
// routes the command's reports back to the uid that submitted it, and to
// the counterparty uid of every trade event.
func (s *Server) HandleResult(cmd *common.Command) {
	reports := reportsForCommand(cmd)
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()

	owner, ownerOk := s.sessions[cmd.Uid]
	for _, r := range reports {
		if ownerOk {
			s.writeReport(owner.conn, &r)
		}
		if r.MatchedOrderUid != 0 {
			if counterparty, ok := s.sessions[r.MatchedOrderUid]; ok {
				s.writeReport(counterparty.conn, &r)
			}
		}
	}
}

func (s *Server) writeReport(conn net.Conn, r *Report) {
	if _, err := conn.Write(r.Serialize()); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("unable to send report")
	}
}

func (s *Server) reportError(conn net.Conn, err error) {
	r := errorReport(err)
	s.writeReport(conn, &r)
}

func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.messages:
			if err := s.handleMessage(msg); err != nil {
				log.Error().Err(err).Str("address", msg.conn.RemoteAddr().String()).Msg("error handling message")
				s.reportError(msg.conn, err)
			}
		}
	}
}

func (s *Server) handleMessage(msg clientMessage) error {
	var cmd common.Command
	var uid common.UserId

	switch msg.message.GetType() {
	case NewOrder:
		m, ok := msg.message.(NewOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		cmd = m.Command()
		uid = m.Uid
	case CancelOrder:
		m, ok := msg.message.(CancelOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		cmd = m.Command()
		uid = m.Uid
	case MoveOrder:
		m, ok := msg.message.(MoveOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		cmd = m.Command()
		uid = m.Uid
	case ReduceOrder:
		m, ok := msg.message.(ReduceOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		cmd = m.Command()
		uid = m.Uid
	case Heartbeat:
		return nil
	default:
		log.Error().Int("messageType", int(msg.message.GetType())).Msg("invalid message type")
		return ErrInvalidMessageType
	}

	s.registerSession(uid, msg.conn)
	s.engine.SubmitCommand(&cmd)
	return nil
}

func (s *Server) registerSession(uid common.UserId, conn net.Conn) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	s.sessions[uid] = ClientSession{conn: conn}
}

// handleConnection reads one message off conn, parses it, and hands it to
// sessionHandler, then re-queues the connection for its next message. Any
// error returned here is fatal to the connection.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed setting deadline")
		conn.Close()
		return nil
	}

	buffer := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		conn.Close()
		return nil
	default:
		n, err := conn.Read(buffer)
		if err != nil {
			conn.Close()
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			conn.Close()
			return nil
		}

		s.messages <- clientMessage{conn: conn, message: message}
		s.pool.AddTask(conn)
	}
	return nil
}
