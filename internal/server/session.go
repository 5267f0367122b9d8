package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Session represents a connected WebSocket client
type Session struct {
	conn   *websocket.Conn
	server *Server
	send   chan Message
	logger *slog.Logger

	// Track if analysis is running (one at a time)
	mu             sync.Mutex
	analysisCancel context.CancelFunc
	wg             sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

func newSession(conn *websocket.Conn, s *Server) *Session {
	return &Session{
		conn:   conn,
		server: s,
		send:   make(chan Message, 256),
		logger: s.logger.With("remote", conn.RemoteAddr().String()),
		closed: make(chan struct{}),
	}
}

func (c *Session) SendMessage(msg Message) {
	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		// Channel full, drop message
		c.logger.Warn("message channel full, dropping message", "type", msg.Type)
	}
}

func (c *Session) SendLog(message, level string) {
	c.SendMessage(NewLogMessage(message, level))
}

func (c *Session) SendError(message string, err error) {
	c.SendMessage(NewErrorMessage(message, err))
}

func (c *Session) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("error writing message", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Session) readPump() {
	defer func() {
		// Cancel any running analysis
		c.cancelAnalysis()
		c.wg.Wait()
		c.close()
		c.conn.Close()
	}()

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket error", "error", err)
			}
			return
		}

		switch msg.Type {
		case TypeAnalyze:
			c.handleAnalyze(msg)
		case TypePing:
			c.SendMessage(Message{Type: TypePong})
		default:
			c.SendError(fmt.Sprintf("Unknown message type: %s", msg.Type), nil)
		}
	}
}

func (c *Session) cancelAnalysis() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.analysisCancel != nil {
		c.analysisCancel()
	}
}

func (c *Session) handleAnalyze(msg Message) {
	payload, err := ParseAnalyzePayload(msg)
	if err != nil {
		c.SendError("Failed to parse analyze request", err)
		return
	}

	// Check if already analyzing
	c.mu.Lock()
	if c.analysisCancel != nil {
		c.mu.Unlock()
		c.SendError("Analysis already in progress", nil)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.analysisCancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			cancel()
			c.mu.Lock()
			c.analysisCancel = nil
			c.mu.Unlock()
		}()

		pipeline := NewPipeline(c.server.client, c.server.store, c, c.logger)
		if _, err := pipeline.Run(ctx, payload); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				c.logger.Info("analysis cancelled")
				return
			}
			c.logger.Error("analysis failed", "error", err)
			c.SendError("Analysis failed", err)
		}
	}()
}
