package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/metrics"
	"tilecraft.ai/internal/protocol"
	"tilecraft.ai/internal/sim/world"
)

const (
	defaultQueue = 64
	ackCacheSize = 4096

	handshakeTimeout = 5 * time.Second
	readTimeout      = 60 * time.Second
	writeTimeout     = 5 * time.Second
)

// Game is the part of the world the server talks to. Every method hands work
// to the world goroutine.
type Game interface {
	Join() chan<- world.JoinRequest
	Leave() chan<- uint32
	Inbox() chan<- world.ActionEnvelope
	CurrentTick() uint64
}

type Server struct {
	game Game
	log  logrus.FieldLogger

	upgrader websocket.Upgrader
	queue    int

	// acks maps session/act id to the ACK it produced. A nil value marks an
	// act still waiting for the world.
	acks *lru.Cache[string, *protocol.AckMsg]
}

func NewServer(g Game, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	acks, _ := lru.New[string, *protocol.AckMsg](ackCacheSize)
	return &Server{
		game: g,
		log:  log.WithField("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		queue: defaultQueue,
		acks:  acks,
	}
}

type session struct {
	id       string
	playerID uint32
	out      chan []byte
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(r.Context(), conn)
		if sess == nil {
			return
		}
		log := s.log.WithFields(logrus.Fields{"session": sess.id, "player": sess.playerID})
		log.Info("session started")
		metrics.Sessions.Inc()
		defer metrics.Sessions.Dec()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			s.handleMessage(sess, msg)
		}
		cancel()

		s.game.Leave() <- sess.playerID
		log.Info("session ended")
	}
}

func (s *Server) handleMessage(sess *session, msg []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeAct {
		return
	}
	var act protocol.ActMsg
	if err := protocol.ValidateAct(msg); err != nil {
		s.reply(sess, protocol.AckMsg{AckFor: ackFor(msg), Code: protocol.ErrProtoBadRequest, Message: err.Error()})
		return
	}
	if err := json.Unmarshal(msg, &act); err != nil {
		s.reply(sess, protocol.AckMsg{Code: protocol.ErrProtoBadRequest, Message: err.Error()})
		return
	}
	if act.ProtocolVersion != protocol.Version {
		s.reply(sess, protocol.AckMsg{AckFor: act.ID, Code: protocol.ErrProtoBadRequest, Message: "bad protocol_version"})
		return
	}

	key := sess.id + "/" + act.ID
	if prev, seen := s.acks.Get(key); seen {
		metrics.ReplayedActs.Inc()
		if prev != nil {
			s.reply(sess, *prev)
		}
		return
	}
	s.acks.Add(key, nil)

	env := world.ActionEnvelope{
		PlayerID: sess.playerID,
		Act:      act,
		Ack: func(a protocol.AckMsg) {
			s.acks.Add(key, &a)
			s.reply(sess, a)
		},
	}
	select {
	case s.game.Inbox() <- env:
	default:
		s.acks.Remove(key)
		metrics.TasksDropped.Inc()
		s.reply(sess, protocol.AckMsg{AckFor: act.ID, Code: protocol.ErrWorldBusy, Tick: s.game.CurrentTick()})
	}
}

// ackFor digs the id out of a frame that failed validation.
func ackFor(msg []byte) string {
	var v struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(msg, &v)
	return v.ID
}

func (s *Server) reply(sess *session, a protocol.AckMsg) {
	a.Type = protocol.TypeAck
	b, err := json.Marshal(a)
	if err != nil {
		return
	}
	send(sess.out, b)
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil
	}
	if err := protocol.ValidateHello(msg); err != nil {
		closeWith(conn, "bad HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil
	}

	out := make(chan []byte, s.queue)
	respCh := make(chan world.JoinResponse, 1)
	select {
	case s.game.Join() <- world.JoinRequest{Name: hello.PlayerName, Out: out, Resp: respCh}:
	case <-ctx.Done():
		return nil
	}
	var resp world.JoinResponse
	select {
	case resp = <-respCh:
	case <-ctx.Done():
		return nil
	}
	if resp.Code != "" {
		closeWith(conn, resp.Code)
		return nil
	}

	sess := &session{id: uuid.NewString(), playerID: resp.Welcome.PlayerID, out: out}
	resp.Welcome.SessionID = sess.id
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.game.Leave() <- sess.playerID
		return nil
	}
	return sess
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
