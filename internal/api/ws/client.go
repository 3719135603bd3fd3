package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/tracing"
	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var errUnknownType = errors.New("unknown message type")

// Client is one stream connection. A single writer goroutine owns the
// connection's write side; everything else enqueues.
type Client struct {
	handler *Handler
	conn    *websocket.Conn
	ctx     context.Context
	logger  *zap.Logger

	mu       sync.Mutex
	send     chan []byte
	attached map[string]bool
	closed   bool
}

func newClient(ctx context.Context, h *Handler, conn *websocket.Conn) *Client {
	logger := h.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	logger = logger.With(tracing.LogFields(ctx)...)
	return &Client{
		handler:  h,
		conn:     conn,
		ctx:      ctx,
		logger:   logger,
		send:     make(chan []byte, sendBuffer),
		attached: make(map[string]bool),
	}
}

// greet sends the current settings and every tab's layout
func (c *Client) greet() {
	h := c.handler
	if h.settings != nil {
		c.reply(settingsMessage(h.settings.Get()))
	}
	layout := h.workspace.Layout()
	for _, tabID := range layout.Tabs() {
		if state, ok := layout.State(tabID); ok {
			c.reply(tabStateMessage(tabID, state, false))
		}
	}
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var req Request
		if err := sonic.Unmarshal(data, &req); err != nil {
			c.reply(errorMessage(req, fmt.Errorf("invalid message: %w", err)))
			continue
		}
		c.handle(req)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug("WebSocket write failed", zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (c *Client) handle(req Request) {
	h := c.handler

	var err error
	switch req.Type {
	case TypeInput:
		err = h.workspace.Input(req.PaneID, req.Data)
	case TypePing:
		c.reply(Message{Type: TypePong, ID: req.ID})
	case TypeAttach, TypeDetach, TypeResize:
		err = c.traced(req)
	default:
		h.metrics.RecordWSMessage("in", "unknown")
		c.reply(errorMessage(req, fmt.Errorf("%w: %q", errUnknownType, req.Type)))
		return
	}

	h.metrics.RecordWSMessage("in", req.Type)
	if err != nil {
		c.reply(errorMessage(req, err))
	}
}

// traced runs the layout-affecting requests under a span
func (c *Client) traced(req Request) error {
	h := c.handler
	var span *tracing.Span
	if h.tracer != nil {
		span, _ = h.tracer.StartSpan(c.ctx, "ws."+req.Type)
		span.Set(zap.String("pane_id", req.PaneID))
		defer h.tracer.End(span)
	}

	var err error
	switch req.Type {
	case TypeAttach:
		err = c.attach(req.PaneID)
	case TypeDetach:
		c.detach(req.PaneID)
	case TypeResize:
		err = h.workspace.Resize(req.PaneID, req.Cols, req.Rows)
	}
	if err != nil && span != nil {
		span.Fail(err)
	}
	return err
}

// attach replays the pane's scrollback and then streams its live output
func (c *Client) attach(paneID string) error {
	h := c.handler
	if _, ok := h.workspace.Pane(paneID); !ok {
		return fmt.Errorf("%w: %s", workspace.ErrPaneNotMounted, paneID)
	}
	surf, ok := h.workspace.Surfaces().Get(paneID)
	if !ok {
		return fmt.Errorf("%w: %s", workspace.ErrPaneNotMounted, paneID)
	}

	surf.Replay(func(snapshot string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		c.attached[paneID] = true
		if snapshot == "" {
			return
		}
		payload, err := sonic.Marshal(outputMessage(paneID, snapshot, true))
		if err != nil {
			c.logger.Error("Failed to encode replay", zap.Error(err))
			return
		}
		c.enqueueLocked(TypeOutput, payload)
	})

	c.logger.Debug("Attached pane", zap.String("pane_id", paneID))
	return nil
}

func (c *Client) detach(paneID string) {
	c.mu.Lock()
	delete(c.attached, paneID)
	c.mu.Unlock()
}

func (c *Client) isAttached(paneID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attached[paneID]
}

func (c *Client) reply(msg Message) {
	payload, err := sonic.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	c.enqueue(msg.Type, payload)
}

func (c *Client) enqueue(msgType string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enqueueLocked(msgType, payload)
}

func (c *Client) enqueueOutput(paneID string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attached[paneID] {
		c.enqueueLocked(TypeOutput, payload)
	}
}

// enqueueLocked drops the connection rather than block a writer when the
// client cannot keep up
func (c *Client) enqueueLocked(msgType string, payload []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
		c.handler.metrics.RecordWSMessage("out", msgType)
	default:
		c.logger.Warn("Client too slow, disconnecting", zap.String("type", msgType))
		c.closeLocked()
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.attached = map[string]bool{}
	close(c.send)
}
