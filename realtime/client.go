package realtime

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/NetaKon/Real-Time-Forum/logging"
	"github.com/NetaKon/Real-Time-Forum/metrics"
)

// ClientConfig tunes websocket sessions.
type ClientConfig struct {
	SendBuffer      int
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	MaxMessageBytes int64
}

// Client is one websocket connection. It reads join_room/leave_room requests and
// writes queued room events.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	cfg  ClientConfig
	log  *logrus.Entry

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an upgraded connection; call Run to serve it.
func NewClient(hub *Hub, conn *websocket.Conn, cfg ClientConfig) *Client {
	id := uuid.NewString()
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		cfg:  cfg,
		log:  logging.For("RealtimeClient").WithField("client_id", id),
		send: make(chan []byte, cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send never blocks; a full queue or a closed client drops the message.
func (c *Client) Send(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// Run serves the connection until it closes, then removes the client from all rooms.
func (c *Client) Run() {
	metrics.RealtimeConnections.Inc()
	defer metrics.RealtimeConnections.Dec()
	c.log.Info("Websocket client connected.")

	go c.writePump()
	c.readPump()

	c.hub.LeaveAll(c)
	c.closeOnce.Do(func() { close(c.done) })
	c.log.Info("Websocket client disconnected.")
}

func (c *Client) readPump() {
	if c.cfg.MaxMessageBytes > 0 {
		c.conn.SetReadLimit(c.cfg.MaxMessageBytes)
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warnf("Unexpected websocket close: %v", err)
			}
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Debugf("Ignoring malformed frame: %v", err)
		return
	}

	switch msg.Event {
	case EventJoinRoom, EventLeaveRoom:
		var req RoomRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				c.log.Debugf("Ignoring %s with malformed data: %v", msg.Event, err)
				return
			}
		}
		if req.QuestionID == "" {
			c.log.Debugf("Ignoring %s without question_id.", msg.Event)
			return
		}
		if msg.Event == EventJoinRoom {
			c.hub.Join(c, req.QuestionID)
		} else {
			c.hub.Leave(c, req.QuestionID)
		}
	default:
		c.log.Debugf("Ignoring unknown event %q.", msg.Event)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.Debugf("Write failed: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Server upgrades HTTP requests to websocket clients of a Hub.
type Server struct {
	hub      *Hub
	cfg      ClientConfig
	upgrader websocket.Upgrader
}

// NewServer accepts upgrades from allowedOrigins; "*" accepts any origin.
func NewServer(hub *Hub, cfg ClientConfig, allowedOrigins []string) *Server {
	return &Server{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		hubLog.Debugf("Websocket upgrade failed: %v", err)
		return
	}
	NewClient(s.hub, conn, s.cfg).Run()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	hosts := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			hosts[strings.ToLower(u.Host)] = struct{}{}
		} else {
			hosts[strings.ToLower(origin)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := hosts[strings.ToLower(u.Host)]
		return ok
	}
}
