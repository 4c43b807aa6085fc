package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/utils/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 1024

	// Snapshots queued for a client before it is considered too slow
	streamBufferSize = 16
)

const (
	streamTypeSnapshot = "snapshot"
	streamTypeError    = "error"
)

type snapshotMessage struct {
	Type      string         `json:"type"`
	Illnesses []model.Record `json:"illnesses"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// stream forwards subscription callbacks to one WebSocket connection.
// Callbacks only enqueue; a single writer owns the connection.
type stream struct {
	ctx  context.Context
	conn *websocket.Conn
	send chan any

	closeOnce sync.Once
	closed    chan struct{}
}

func newStream(ctx context.Context, conn *websocket.Conn) *stream {
	return &stream{
		ctx:    ctx,
		conn:   conn,
		send:   make(chan any, streamBufferSize),
		closed: make(chan struct{}),
	}
}

func (s *stream) close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

func (s *stream) enqueue(msg any) {
	select {
	case <-s.closed:
	case s.send <- msg:
	default:
		logging.From(s.ctx).Warn("stream client is too slow, closing connection")
		s.close()
	}
}

func (s *stream) onUpdate(records []model.Record) {
	s.enqueue(snapshotMessage{Type: streamTypeSnapshot, Illnesses: records})
}

func (s *stream) onError(err error) {
	logging.From(s.ctx).Warn("illness subscription failed", logging.ErrAttr(err))
	s.enqueue(errorMessage{Type: streamTypeError, Error: err.Error()})
}

// readPump only serves control frames and notices the client going away.
func (s *stream) readPump() {
	defer s.close()

	logger := logging.From(s.ctx)
	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Error("failed to set read deadline", "error", err)
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("unexpected WebSocket close", "error", err)
			}
			return
		}
	}
}

// writePump returns when the client leaves, the stream is closed, or an
// error message has been sent.
func (s *stream) writePump() {
	logger := logging.From(s.ctx)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return

		case msg := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("failed to set write deadline", "error", err)
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				logger.Warn("failed to write message", "error", err)
				return
			}
			if _, ok := msg.(errorMessage); ok {
				closeMsg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed")
				if err := s.conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
					logger.Debug("failed to write close message", "error", err)
				}
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("failed to set write deadline", "error", err)
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("failed to write ping", "error", err)
				return
			}
		}
	}
}

func illnessStreamHandler(uc IllnessUseCase, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.From(ctx)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// upgrader has already replied to the client
			logger.Warn("failed to upgrade connection", "error", err)
			return
		}
		defer func() {
			if err := conn.Close(); err != nil {
				logger.Debug("failed to close connection", "error", err)
			}
		}()

		s := newStream(ctx, conn)
		sub := uc.Subscribe(ctx, s.onUpdate, s.onError)
		defer sub.Cancel()

		logger.Info("illness stream opened")
		go s.readPump()
		s.writePump()
		s.close()
		logger.Info("illness stream closed")
	}
}
