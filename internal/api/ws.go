package api

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/diffgate/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin:     localOrigin,
}

// localOrigin accepts clients without an Origin header and pages served from
// a loopback host.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// WebSocket message types from client.
const (
	wsMsgCheck = "check"
)

// WebSocket message types to client.
const (
	wsMsgStarted = "started"
	wsMsgFinding = "finding"
	wsMsgReport  = "report"
	wsMsgError   = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsStarted acknowledges a check request.
type wsStarted struct {
	RepoDir    string `json:"repo_dir"`
	BaseBranch string `json:"base_branch"`
}

// wsConn serializes writes; gorilla connections allow one writer at a time.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
	s    *Server
}

func (c *wsConn) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.s.log.Error("ws marshal", "err", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(wsMessage{Type: msgType, Data: raw}); err != nil {
		c.s.log.Debug("ws write", "err", err)
	}
}

func (c *wsConn) sendError(msg string) {
	c.send(wsMsgError, map[string]string{"message": msg})
}

// handleWebSocket runs checks on request and streams each finding as it is
// recorded, followed by the sealed report.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()
	c := &wsConn{conn: conn, s: s}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", "err", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgCheck:
			s.handleWSCheck(r, c, msg.Data)
		default:
			c.sendError("unknown message type: " + msg.Type)
		}
	}
}

func (s *Server) handleWSCheck(r *http.Request, c *wsConn, data json.RawMessage) {
	var req checkRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid check data")
		return
	}

	c.send(wsMsgStarted, wsStarted{RepoDir: req.RepoDir, BaseBranch: req.BaseBranch})
	rep, err := s.run(r.Context(), req, func(f model.Finding) {
		c.send(wsMsgFinding, f)
	})
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.send(wsMsgReport, rep)
}
