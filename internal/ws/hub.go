// Package ws is the realtime edge of the casino: it upgrades connections,
// routes inbound messages to the session's round under its lock, and fans
// the resulting state out to every subscriber of that session.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Richrosh3/online-casino/internal/auth"
	"github.com/Richrosh3/online-casino/internal/game"
	"github.com/Richrosh3/online-casino/internal/ledger"
	"github.com/Richrosh3/online-casino/internal/registry"
)

type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	user    string
	session *registry.Session
}

// Hub tracks which clients subscribe to which session and owns the
// upgrade handler.
type Hub struct {
	registry        *registry.Registry
	ledger          ledger.Ledger
	startingBalance int64
	upgrader        websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]map[*Client]bool
}

func NewHub(reg *registry.Registry, led ledger.Ledger, startingBalance int64) *Hub {
	h := &Hub{
		registry:        reg,
		ledger:          led,
		startingBalance: startingBalance,
		upgrader:        websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		rooms:           map[string]map[*Client]bool{},
	}
	reg.OnForceReset(h.pushForceReset)
	return h
}

// pushForceReset broadcasts the fresh state after the janitor abandons a
// stale play-again vote, so clients don't keep rendering the dead round.
func (h *Hub) pushForceReset(sessionID string) {
	if s, ok := h.registry.Get(sessionID); ok {
		h.broadcastFull(s)
	}
}

// HandleWS serves /ws/{kind}/{session}. A fresh session id creates the
// round; a known one joins it.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	kind, err := game.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	sessionID := chi.URLParam(r, "session")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}
	session, err := h.registry.GetOrCreate(sessionID, kind)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	user := auth.Identity(r)
	if err := h.ledger.Ensure(ctx, user, h.startingBalance); err != nil {
		log.Error().Str("user", user).Err(err).Msg("account ensure failed")
		http.Error(w, "ledger unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &Client{conn: conn, send: make(chan []byte, 16), user: user, session: session}
	go c.writeLoop()

	var joinErr error
	session.Do(func(round game.Round) {
		joinErr = round.AddPlayer(ctx, user)
	})
	if joinErr != nil {
		c.sendFrame(Outbound{Type: "error", Data: joinErr.Error()})
		safeClose(c.send)
		return
	}
	h.register(c)
	log.Info().Str("session", sessionID).Str("kind", string(kind)).Str("user", user).
		Msg("player connected")
	h.broadcastFull(session)

	h.readLoop(c)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.session.ID]
	if room == nil {
		room = map[*Client]bool{}
		h.rooms[c.session.ID] = room
	}
	room[c] = true
}

// unregister drops the client and reports whether it was the identity's
// last connection to the session. A page reload briefly holds two sockets
// for one seat; only the last one to close gives the seat up.
func (h *Hub) unregister(c *Client) (lastForUser bool) {
	h.mu.Lock()
	lastForUser = true
	if room := h.rooms[c.session.ID]; room != nil {
		delete(room, c)
		for other := range room {
			if other.user == c.user {
				lastForUser = false
				break
			}
		}
		if len(room) == 0 {
			delete(h.rooms, c.session.ID)
		}
	}
	h.mu.Unlock()
	safeClose(c.send)
	return lastForUser
}

func (h *Hub) readLoop(c *Client) {
	defer func() {
		last := h.unregister(c)
		_ = c.conn.Close()
		if !last {
			return
		}
		c.session.Do(func(round game.Round) {
			round.RemovePlayer(context.Background(), c.user)
		})
		log.Info().Str("session", c.session.ID).Str("user", c.user).Msg("player disconnected")
		h.broadcastFull(c.session)
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var in Inbound
		if err := json.Unmarshal(msg, &in); err != nil {
			c.sendFrame(Outbound{Type: "error", Data: "malformed message"})
			continue
		}
		h.dispatch(c, in)
	}
}

// dispatch routes one inbound message. Game rejections go back to the
// offending client alone; successful mutations broadcast.
func (h *Hub) dispatch(c *Client, in Inbound) {
	ctx := context.Background()
	switch in.Type {
	case MsgLoadGame:
		c.session.Do(func(round game.Round) {
			c.sendFrame(Outbound{Type: "load_game", Data: round.SnapshotFor(c.user)})
		})
	case MsgReadyUp:
		var spec ReadySpec
		if err := json.Unmarshal(in.Data, &spec); err != nil {
			c.sendFrame(Outbound{Type: "error", Data: "malformed ready_up"})
			return
		}
		h.mutate(c, func(ctx context.Context, round game.Round) (game.Update, error) {
			return round.SetReady(ctx, c.user, spec.Ready, spec.Reset)
		})
	case MsgPlaceBet, MsgPlaceBet1, MsgPlaceBet2:
		// The craps client splits bets across two message types; the
		// table validates the stage either way.
		h.mutate(c, func(ctx context.Context, round game.Round) (game.Update, error) {
			return round.PlaceBet(ctx, c.user, in.Data)
		})
	case MsgAction:
		h.mutate(c, func(ctx context.Context, round game.Round) (game.Update, error) {
			return round.ApplyAction(ctx, c.user, in.Data)
		})
	case MsgRequestBalance:
		balance, err := h.ledger.Balance(ctx, c.user)
		if err != nil {
			c.sendFrame(Outbound{Type: "error", Data: "balance unavailable"})
			return
		}
		c.sendFrame(Outbound{Type: "update", Data: UpdateData{ToUpdate: game.TagBalance, Balance: &balance}})
	case MsgChat:
		var spec ChatSpec
		if err := json.Unmarshal(in.Data, &spec); err != nil {
			c.sendFrame(Outbound{Type: "error", Data: "malformed chat_msg"})
			return
		}
		h.deliverChat(c, spec)
	default:
		c.sendFrame(Outbound{Type: "error", Data: "unknown message type"})
	}
}

type mutation func(ctx context.Context, round game.Round) (game.Update, error)

func (h *Hub) mutate(c *Client, fn mutation) {
	var (
		update game.Update
		err    error
	)
	c.session.Do(func(round game.Round) {
		update, err = fn(context.Background(), round)
	})
	if err != nil {
		c.sendFrame(Outbound{Type: "error", Data: err.Error()})
		return
	}
	if update.Tag == "" {
		h.broadcastFull(c.session)
		return
	}
	h.broadcastUpdate(c.session, update.Tag)
}

// broadcastFull sends each subscriber their own load_game view, so hidden
// cards stay hidden per viewer.
func (h *Hub) broadcastFull(s *registry.Session) {
	h.fanOut(s, func(viewer string, snap map[string]any) Outbound {
		return Outbound{Type: "load_game", Data: snap}
	})
}

func (h *Hub) broadcastUpdate(s *registry.Session, tag string) {
	h.fanOut(s, func(viewer string, snap map[string]any) Outbound {
		return Outbound{Type: "update", Data: UpdateData{ToUpdate: tag, State: snap}}
	})
}

func (h *Hub) fanOut(s *registry.Session, frame func(viewer string, snap map[string]any) Outbound) {
	h.mu.Lock()
	subscribers := make([]*Client, 0, len(h.rooms[s.ID]))
	for c := range h.rooms[s.ID] {
		subscribers = append(subscribers, c)
	}
	h.mu.Unlock()

	snaps := make([]map[string]any, len(subscribers))
	s.Do(func(round game.Round) {
		for i, c := range subscribers {
			snaps[i] = round.SnapshotFor(c.user)
		}
	})
	for i, c := range subscribers {
		msg, err := json.Marshal(frame(c.user, snaps[i]))
		if err != nil {
			continue
		}
		safeSend(c.send, msg)
	}
}

// deliverChat broadcasts table chat, or unicasts when addressed. The
// sender always gets an echo so their own log stays consistent.
func (h *Hub) deliverChat(sender *Client, spec ChatSpec) {
	msg, err := json.Marshal(Outbound{Type: "chat_msg", User: sender.user, Data: spec.Message})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[sender.session.ID] {
		if spec.To != "" && c.user != spec.To && c != sender {
			continue
		}
		safeSend(c.send, msg)
	}
}

// writeLoop owns the connection's write side and closes the socket once
// the send channel drains.
func (c *Client) writeLoop() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *Client) sendFrame(out Outbound) {
	msg, err := json.Marshal(out)
	if err != nil {
		return
	}
	safeSend(c.send, msg)
}

// safeSend and safeClose tolerate racing a disconnect: a send on a closed
// channel becomes a dropped frame instead of a panic.
func safeSend(ch chan []byte, msg []byte) {
	defer func() { _ = recover() }()
	select {
	case ch <- msg:
	default:
	}
}

func safeClose(ch chan []byte) {
	defer func() { _ = recover() }()
	close(ch)
}
