package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"torus-snake/game"
)

// Wire protocol, keyed on "t":
//
//	server -> client  "f" frame     {"t":"f","session":..,"tick":..,"snake":[..],...}
//	                  "o" game over {"t":"o","session":..,"score":..,"reason":..}
//	client -> server  "k" key       {"t":"k","k":"ArrowLeft"}
//	                  "tilt"        {"t":"tilt","g":12.5,"b":-3}
//	                  "s" start     {"t":"s"}
const (
	MsgFrame    = "f"
	MsgGameOver = "o"
	MsgKey      = "k"
	MsgTilt     = "tilt"
	MsgStart    = "s"
)

const (
	MaxConns   = 32
	sendBuffer = 16
	writeWait  = 5 * time.Second
)

type frameMsg struct {
	Type string `json:"t"`
	game.Frame
}

type overMsg struct {
	Type string `json:"t"`
	game.Summary
}

type clientMsg struct {
	Type  string  `json:"t"`
	Key   string  `json:"k,omitempty"`
	Gamma float64 `json:"g,omitempty"`
	Beta  float64 `json:"b,omitempty"`
}

// Hub fans frames out to every websocket client and feeds their input back
// into the shared session. It implements game.Presenter.
type Hub struct {
	game     Controller
	steer    Steering
	upgrader websocket.Upgrader
	origins  map[string]bool

	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewHub accepts browser clients from the server's own origin plus the
// listed ones. Clients that send no Origin header, such as CLI tools, are
// always accepted.
func NewHub(ctl Controller, steer Steering, origins ...string) *Hub {
	h := &Hub{
		game:    ctl,
		steer:   steer,
		origins: make(map[string]bool, len(origins)),
		conns:   make(map[string]*Conn),
	}
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			h.origins[strings.ToLower(o)] = true
		}
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:     h.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return h.origins[strings.ToLower(origin)]
}

// Conn is one websocket client. Writes go through a buffered queue so a
// slow client never stalls the tick.
type Conn struct {
	ID   string
	ws   *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *Conn) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.send)
	})
}

func (c *Conn) writeLoop() {
	defer c.ws.Close()
	for data := range c.send {
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Str("conn", c.ID).Msg("ws write failed")
			return
		}
	}
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Count() >= MaxConns {
		writeError(w, http.StatusServiceUnavailable, "too_many_connections")
		return
	}
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade")
		return
	}

	c := &Conn{
		ID:   uuid.New().String(),
		ws:   ws,
		send: make(chan []byte, sendBuffer),
	}
	if data, err := json.Marshal(frameMsg{Type: MsgFrame, Frame: h.game.Snapshot()}); err == nil {
		c.enqueue(data)
	}
	h.add(c)
	log.Info().Str("conn", c.ID).Int("clients", h.Count()).Msg("ws client connected")

	go c.writeLoop()
	h.readLoop(c)
}

func (h *Hub) readLoop(c *Conn) {
	defer func() {
		h.remove(c)
		log.Info().Str("conn", c.ID).Msg("ws client disconnected")
	}()

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", c.ID).Msg("ws read")
			}
			return
		}

		var msg clientMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).Str("conn", c.ID).Msg("bad ws message")
			continue
		}

		switch msg.Type {
		case MsgKey:
			h.steer.Key(msg.Key)
		case MsgTilt:
			h.steer.Tilt(msg.Gamma, msg.Beta)
		case MsgStart:
			if err := h.game.Start(); err != nil {
				log.Error().Err(err).Msg("start session")
			}
		}
	}
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

func (h *Hub) remove(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c.ID)
	h.mu.Unlock()
	c.close()
}

func (h *Hub) broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("encode ws message")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		if !c.enqueue(data) {
			log.Debug().Str("conn", c.ID).Msg("ws client lagging, frame dropped")
		}
	}
}

func (h *Hub) Present(f game.Frame) {
	h.broadcast(frameMsg{Type: MsgFrame, Frame: f})
}

func (h *Hub) GameOver(s game.Summary) {
	h.broadcast(overMsg{Type: MsgGameOver, Summary: s})
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]*Conn)
	h.mu.Unlock()
	for _, c := range conns {
		c.close()
	}
}
