package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tilecraft.ai/internal/logger"
	"tilecraft.ai/internal/protocol"
)

func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "player name")
		every = flag.Duration("every", 2*time.Second, "how often to look for something to hit")
	)
	flag.Parse()

	log := logger.Init(logger.ConfigFromEnv()).WithField("component", "bot")
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.WithError(err).Fatal("dial")
	}
	defer conn.Close()

	hello := protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, PlayerName: *name}
	if err := conn.WriteJSON(hello); err != nil {
		log.WithError(err).Fatal("send HELLO")
	}

	msgs := make(chan []byte, 64)
	go func() {
		defer close(msgs)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.WithError(err).Info("connection closed")
				return
			}
			msgs <- msg
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	b := newBot(log)
	for {
		var acts []protocol.ActMsg
		select {
		case <-stop:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			acts = b.handle(msg)
		case <-ticker.C:
			acts = b.think()
		}
		for _, a := range acts {
			if err := conn.WriteJSON(a); err != nil {
				log.WithError(err).Warn("send ACT")
				return
			}
		}
	}
}

type bot struct {
	log    logrus.FieldLogger
	self   uint32
	pos    [3]int
	seq    int
	others map[uint32][3]int
}

func newBot(log logrus.FieldLogger) *bot {
	return &bot{log: log, others: map[uint32][3]int{}}
}

func (b *bot) act(action string) protocol.ActMsg {
	b.seq++
	return protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		ID:              fmt.Sprintf("bot_%s_%d", action, b.seq),
		Action:          action,
	}
}

// handle tracks the bot's own position and the creatures around it. Trade
// offers are accepted as they come.
func (b *bot) handle(msg []byte) []protocol.ActMsg {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return nil
	}
	switch base.Type {
	case protocol.TypeWelcome:
		var w protocol.WelcomeMsg
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil
		}
		b.self, b.pos = w.PlayerID, w.Pos
		b.log.WithFields(logrus.Fields{"player": w.PlayerID, "pos": w.Pos, "tick_rate": w.WorldParams.TickRateHz}).Info("WELCOME")

	case protocol.TypeAck:
		var a protocol.AckMsg
		if err := json.Unmarshal(msg, &a); err != nil {
			return nil
		}
		if !a.Accepted {
			b.log.WithFields(logrus.Fields{"act": a.AckFor, "code": a.Code}).Debug("rejected")
		}

	case protocol.TypeEvent:
		var ev protocol.EventMsg
		if err := json.Unmarshal(msg, &ev); err != nil {
			return nil
		}
		return b.event(ev)
	}
	return nil
}

func (b *bot) event(ev protocol.EventMsg) []protocol.ActMsg {
	switch ev.Kind {
	case protocol.EventCreatureAppeared, protocol.EventCreatureMoved:
		if ev.Creature == nil {
			return nil
		}
		if ev.Creature.ID == b.self {
			b.pos = ev.Creature.Pos
			return nil
		}
		b.others[ev.Creature.ID] = ev.Creature.Pos
	case protocol.EventCreatureDisappeared:
		if ev.Creature != nil {
			delete(b.others, ev.Creature.ID)
		}
	case protocol.EventHealth:
		if ev.Creature != nil && ev.Creature.ID != b.self && ev.Creature.HealthPercent == 0 {
			delete(b.others, ev.Creature.ID)
		}
	case protocol.EventTradeOffer:
		return []protocol.ActMsg{b.act(protocol.ActionTradeAccept)}
	}
	return nil
}

// think attacks the lowest-id creature standing next to the bot.
func (b *bot) think() []protocol.ActMsg {
	if b.self == 0 {
		return nil
	}
	var target uint32
	for id, p := range b.others {
		if p[2] != b.pos[2] || abs(p[0]-b.pos[0]) > 1 || abs(p[1]-b.pos[1]) > 1 {
			continue
		}
		if target == 0 || id < target {
			target = id
		}
	}
	if target == 0 {
		return nil
	}
	a := b.act(protocol.ActionAttack)
	a.Target = target
	return []protocol.ActMsg{a}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
