package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"torus-snake/game"
	"torus-snake/game/types"
)

func dial(t *testing.T, fx *fixture) (*websocket.Conn, func()) {
	t.Helper()
	ts := httptest.NewServer(fx.srv.Handler())
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		ts.Close()
		t.Fatalf("dial: %v", err)
	}
	return ws, func() {
		ws.Close()
		ts.Close()
	}
}

func readMsg(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubSendsSnapshotOnConnect(t *testing.T) {
	fx := newFixture(t, "")
	ws, done := dial(t, fx)
	defer done()

	m := readMsg(t, ws)
	if m["t"] != MsgFrame || m["session"] != "s1" {
		t.Errorf("first message = %v", m)
	}
}

func TestHubBroadcasts(t *testing.T) {
	fx := newFixture(t, "")
	hub := fx.srv.opts.Hub
	ws, done := dial(t, fx)
	defer done()
	readMsg(t, ws)
	waitFor(t, func() bool { return hub.Count() == 1 }, "client not registered")

	hub.Present(game.Frame{SessionID: "s2", Tick: 7, Score: 3, Ate: true})
	m := readMsg(t, ws)
	if m["t"] != MsgFrame || m["tick"] != float64(7) || m["ate"] != true {
		t.Errorf("frame message = %v", m)
	}

	hub.GameOver(game.Summary{SessionID: "s2", Score: 3, Reason: game.ReasonSelfCollision})
	m = readMsg(t, ws)
	if m["t"] != MsgGameOver || m["score"] != float64(3) || m["reason"] != "self_collision" {
		t.Errorf("game over message = %v", m)
	}
}

func TestHubClientInput(t *testing.T) {
	fx := newFixture(t, "")
	ws, done := dial(t, fx)
	defer done()
	readMsg(t, ws)

	if err := ws.WriteJSON(clientMsg{Type: MsgKey, Key: "ArrowDown"}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return fx.holder.Direction() == types.Down }, "key not applied")

	if err := ws.WriteJSON(clientMsg{Type: MsgTilt, Gamma: -20, Beta: 3}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return fx.holder.Direction() == types.Left }, "tilt not applied")

	if err := ws.WriteJSON(clientMsg{Type: MsgStart}); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return fx.game.startCount() == 1 }, "start not applied")
}

func TestHubDropsClosedClients(t *testing.T) {
	fx := newFixture(t, "")
	hub := fx.srv.opts.Hub
	ws, done := dial(t, fx)
	readMsg(t, ws)
	waitFor(t, func() bool { return hub.Count() == 1 }, "client not registered")

	done()
	waitFor(t, func() bool { return hub.Count() == 0 }, "closed client still registered")

	// broadcasting with no clients is a no-op
	hub.Present(game.Frame{})
}

func TestHubOrigins(t *testing.T) {
	fx := newFixture(t, "")
	fx.srv = New(Options{
		Scores: fx.store,
		Game:   fx.game,
		Input:  fx.holder,
		Hub:    NewHub(fx.game, fx.holder, "https://play.example/"),
	})
	ts := httptest.NewServer(fx.srv.Handler())
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	tests := []struct {
		origin string
		ok     bool
	}{
		{"", true},
		{ts.URL, true},
		{"https://play.example", true},
		{"https://evil.example", false},
	}
	for _, tt := range tests {
		header := http.Header{}
		if tt.origin != "" {
			header.Set("Origin", tt.origin)
		}
		ws, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		if tt.ok {
			if err != nil {
				t.Errorf("origin %q rejected: %v", tt.origin, err)
				continue
			}
			ws.Close()
			continue
		}
		if err == nil {
			ws.Close()
			t.Errorf("origin %q accepted", tt.origin)
			continue
		}
		if resp == nil || resp.StatusCode != http.StatusForbidden {
			t.Errorf("origin %q: response %v", tt.origin, resp)
		}
	}
}
