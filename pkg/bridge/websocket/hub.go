// Package websocket serves the bridge feed to browser dashboards.
package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/referee.go/pkg/bridge"
	fx "github.com/robotalks/referee.go/pkg/framework"
	"github.com/robotalks/referee.go/pkg/sim"
)

// Paths served by Hub.
const (
	PathFeed   = "/feed"
	PathScreen = "/screen"
)

type conn struct {
	ws   *websocket.Conn
	lock sync.Mutex
}

func (c *conn) send(codec websocket.Codec, v interface{}) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return codec.Send(c.ws, v)
}

// Hub broadcasts envelopes on PathFeed and simulated client screen changes
// on PathScreen. Binary messages received on PathFeed are mode updates.
type Hub struct {
	Addr  string
	Modes *bridge.ModeReceiver

	lock    sync.RWMutex
	feeds   map[*conn]struct{}
	screens map[*conn]struct{}
}

// NewHub creates a Hub.
func NewHub(addr string, modes *bridge.ModeReceiver) *Hub {
	return &Hub{
		Addr:    addr,
		Modes:   modes,
		feeds:   make(map[*conn]struct{}),
		screens: make(map[*conn]struct{}),
	}
}

// Name implements framework.Named.
func (h *Hub) Name() string {
	return "websocket"
}

// Handler returns the http.Handler serving Hub paths.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(PathFeed, websocket.Handler(h.serveFeed))
	mux.Handle(PathScreen, websocket.Handler(h.serveScreen))
	return mux
}

// Publish implements bridge.Sink. Connections failing to receive are dropped.
func (h *Hub) Publish(topic string, payload []byte) error {
	for _, c := range h.conns(h.feeds) {
		if err := c.send(websocket.Message, payload); err != nil {
			glog.V(2).Infof("websocket %s: %v", topic, err)
			h.remove(h.feeds, c)
		}
	}
	return nil
}

// ScreenChanged implements sim.ChangeListener.
func (h *Hub) ScreenChanged(changes []sim.Change) {
	for _, c := range h.conns(h.screens) {
		if err := c.send(websocket.JSON, changes); err != nil {
			h.remove(h.screens, c)
		}
	}
}

// Clients returns the number of connected feeds and screens.
func (h *Hub) Clients() (feeds, screens int) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.feeds), len(h.screens)
}

// Run implements framework.Runnable.
func (h *Hub) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return err
	}
	glog.Infof("websocket listening on %s", ln.Addr())
	server := &http.Server{Handler: h.Handler()}
	err = fx.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
	if err == http.ErrServerClosed {
		err = nil
	}
	return err
}

func (h *Hub) serveFeed(ws *websocket.Conn) {
	c := h.add(h.feeds, ws)
	defer h.remove(h.feeds, c)
	for {
		var payload []byte
		if err := websocket.Message.Receive(ws, &payload); err != nil {
			return
		}
		if h.Modes == nil {
			continue
		}
		if err := h.Modes.HandlePayload(payload); err != nil {
			glog.Warningf("websocket modes: %v", err)
		}
	}
}

func (h *Hub) serveScreen(ws *websocket.Conn) {
	c := h.add(h.screens, ws)
	defer h.remove(h.screens, c)
	var discard []byte
	for websocket.Message.Receive(ws, &discard) == nil {
	}
}

func (h *Hub) add(set map[*conn]struct{}, ws *websocket.Conn) *conn {
	c := &conn{ws: ws}
	h.lock.Lock()
	set[c] = struct{}{}
	h.lock.Unlock()
	return c
}

func (h *Hub) remove(set map[*conn]struct{}, c *conn) {
	h.lock.Lock()
	_, ok := set[c]
	delete(set, c)
	h.lock.Unlock()
	if ok {
		c.ws.Close()
	}
}

func (h *Hub) conns(set map[*conn]struct{}) []*conn {
	h.lock.RLock()
	defer h.lock.RUnlock()
	conns := make([]*conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}
