package ws

import (
	"net/http"
	"sync"

	"github.com/GriffinCanCode/menuterm/backend/internal/domain/orchestrator"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/surface"
	"github.com/GriffinCanCode/menuterm/backend/internal/domain/workspace"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/menuterm/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/menuterm/backend/internal/providers/settings"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Options configures a Handler
type Options struct {
	Workspace *workspace.Manager
	Settings  *settings.Store
	// AllowOrigin decides browser origins; requests without an Origin
	// header are always accepted
	AllowOrigin func(origin string) bool
	Tracer      *tracing.Tracer
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
}

// Handler manages stream connections. Layout, freeze and settings changes
// are broadcast to every client; pane output only to clients attached to
// that pane.
type Handler struct {
	workspace *workspace.Manager
	settings  *settings.Store
	tracer    *tracing.Tracer
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	cancels []func()
}

// NewHandler creates a handler and subscribes it to the workspace
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Handler{
		workspace: opts.Workspace,
		settings:  opts.Settings,
		tracer:    opts.Tracer,
		metrics:   opts.Metrics,
		logger:    logger,
		clients:   make(map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || opts.AllowOrigin == nil {
				return true
			}
			return opts.AllowOrigin(origin)
		},
	}

	h.cancels = append(h.cancels, opts.Workspace.Surfaces().Subscribe(surface.Listener{
		Output: h.output,
		Freeze: func(tabID string, paneIDs []string, frozen bool) {
			h.broadcast(freezeMessage(tabID, paneIDs, frozen))
		},
	}))
	opts.Workspace.Layout().OnChange(func(tabID string, state orchestrator.TabPaneState, removed bool) {
		h.broadcast(tabStateMessage(tabID, state, removed))
	})
	if opts.Settings != nil {
		h.cancels = append(h.cancels, opts.Settings.Subscribe(func(s settings.Settings) {
			h.broadcast(settingsMessage(s))
		}))
	}
	return h
}

// HandleConnection upgrades the request and serves the client until it
// disconnects
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(c.Request.Context(), h, conn)
	if !h.register(client) {
		client.close()
		_ = conn.Close()
		return
	}
	defer h.unregister(client)

	go client.writePump()
	client.greet()
	client.readPump()
}

// Len returns the number of connected clients
func (h *Handler) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and stops listening to the workspace
func (h *Handler) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	cancels := h.cancels
	h.cancels = nil
	h.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	for client := range clients {
		client.close()
	}
}

func (h *Handler) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.IncWSConnections()
	h.logger.Debug("Client connected", zap.Int("clients", len(h.clients)))
	return true
}

func (h *Handler) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	c.close()
	if ok {
		h.metrics.DecWSConnections()
		h.logger.Debug("Client disconnected")
	}
}

func (h *Handler) snapshotClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *Handler) broadcast(msg Message) {
	clients := h.snapshotClients()
	if len(clients) == 0 {
		return
	}
	payload, err := sonic.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to encode message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	for _, c := range clients {
		c.enqueue(msg.Type, payload)
	}
}

// output runs on the surface's writer while it holds the pane's output lock
func (h *Handler) output(paneID, data string) {
	var payload []byte
	for _, c := range h.snapshotClients() {
		if !c.isAttached(paneID) {
			continue
		}
		if payload == nil {
			var err error
			if payload, err = sonic.Marshal(outputMessage(paneID, data, false)); err != nil {
				h.logger.Error("Failed to encode output", zap.Error(err))
				return
			}
		}
		c.enqueueOutput(paneID, payload)
	}
}
