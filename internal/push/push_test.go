package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestParseEvent(t *testing.T) {
	ev := ParseEvent([]byte(`{"type":"deploy","version":"1.0.2"}`))
	if ev.Type != "deploy" || ev.Version != "1.0.2" {
		t.Errorf("ParseEvent = %+v", ev)
	}

	ev = ParseEvent([]byte("new build"))
	if ev.Type != "" || ev.Raw != "new build" {
		t.Errorf("ParseEvent(plain) = %+v", ev)
	}
}

func TestListener_DeliversTextMessages(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"deploy","version":"1.0.2"}`))
		conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
		conn.WriteMessage(websocket.TextMessage, []byte("ping"))
		// Hold the connection until the client goes away.
		conn.ReadMessage()
	}))
	defer srv.Close()

	events := make(chan Event, 4)
	ctx, cancel := context.WithCancel(context.Background())
	l := New(wsURL(srv), func(ev Event) { events <- ev })
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	first := recv(t, events)
	if first.Version != "1.0.2" {
		t.Errorf("first event = %+v", first)
	}
	second := recv(t, events)
	if second.Raw != "ping" {
		t.Errorf("second event = %+v, want raw ping", second)
	}
	if ua, _ := gotUA.Load().(string); !strings.HasSuffix(ua, "-checker") {
		t.Errorf("User-Agent = %q", ua)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestListener_Reconnects(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := conns.Add(1)
		conn.WriteMessage(websocket.TextMessage, []byte{byte('0' + n)})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}))
	defer srv.Close()

	events := make(chan Event, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := New(wsURL(srv), func(ev Event) { events <- ev },
		WithBackoff(5*time.Millisecond, 10*time.Millisecond))
	go l.Run(ctx)

	if ev := recv(t, events); ev.Raw != "1" {
		t.Errorf("first connection event = %q", ev.Raw)
	}
	if ev := recv(t, events); ev.Raw != "2" {
		t.Errorf("second connection event = %q", ev.Raw)
	}
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
