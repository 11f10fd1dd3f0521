//go:build integration

package integration_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// deployment is a fake web deployment: it serves /version.json and pushes
// deploy events to websocket clients on /events.
type deployment struct {
	srv      *httptest.Server
	requests atomic.Int32

	mu      sync.Mutex
	version string
	hash    string
	clients []*websocket.Conn
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newDeployment(t *testing.T, version, hash string) *deployment {
	t.Helper()
	d := &deployment{version: version, hash: hash}

	mux := http.NewServeMux()
	mux.HandleFunc("/version.json", func(w http.ResponseWriter, r *http.Request) {
		d.requests.Add(1)
		if r.URL.Query().Get("t") == "" {
			http.Error(w, "missing cache buster", http.StatusBadRequest)
			return
		}
		d.mu.Lock()
		body := fmt.Sprintf(`{"version":%q,"buildHash":%q,"buildTime":"2026-10-19T00:00:00Z"}`, d.version, d.hash)
		d.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		d.mu.Lock()
		d.clients = append(d.clients, conn)
		d.mu.Unlock()
	})

	d.srv = httptest.NewServer(mux)
	t.Cleanup(func() {
		d.mu.Lock()
		for _, c := range d.clients {
			c.Close()
		}
		d.mu.Unlock()
		d.srv.Close()
	})
	return d
}

func (d *deployment) endpoint() string { return d.srv.URL + "/version.json" }

func (d *deployment) eventsURL() string {
	return "ws" + strings.TrimPrefix(d.srv.URL, "http") + "/events"
}

// deploy switches the served build and announces it to every listener.
func (d *deployment) deploy(version, hash string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version, d.hash = version, hash
	msg := fmt.Sprintf(`{"type":"deploy","version":%q}`, version)
	for _, c := range d.clients {
		_ = c.WriteMessage(websocket.TextMessage, []byte(msg))
	}
}

func (d *deployment) listeners() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clients)
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
