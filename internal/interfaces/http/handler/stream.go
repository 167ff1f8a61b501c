package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scholarconnect/backend/internal/infrastructure/realtime"
	"github.com/scholarconnect/backend/internal/interfaces/http/dto"
	"github.com/scholarconnect/backend/internal/interfaces/http/middleware"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	ID     string
	UserID string
	Chan   chan SSEMessage
	Done   chan struct{}
}

// SSEMessage is a single event on the wire
type SSEMessage struct {
	Event string
	Data  string
	ID    string
}

// FeedStreamHandler fans post change events out to connected SSE
// clients. Each server instance subscribes to the broker once and
// forwards every change to its local clients; clients reconcile their
// feed from the insert/update/delete stream.
type FeedStreamHandler struct {
	BaseHandler
	broker     realtime.Broker
	logger     *zap.Logger
	clients    sync.Map // map[string]*SSEClient
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	started    bool
	startMu    sync.Mutex
	maxClients int
}

// FeedStreamOption is a functional option for configuring the handler
type FeedStreamOption func(*FeedStreamHandler)

// WithStreamLogger sets the logger for the handler
func WithStreamLogger(logger *zap.Logger) FeedStreamOption {
	return func(h *FeedStreamHandler) {
		h.logger = logger
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) FeedStreamOption {
	return func(h *FeedStreamHandler) {
		h.heartbeat = interval
	}
}

// WithStreamMaxClients sets the maximum number of concurrent SSE clients
func WithStreamMaxClients(max int) FeedStreamOption {
	return func(h *FeedStreamHandler) {
		h.maxClients = max
	}
}

// NewFeedStreamHandler creates a new SSE handler for the post change stream
func NewFeedStreamHandler(broker realtime.Broker, opts ...FeedStreamOption) *FeedStreamHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &FeedStreamHandler{
		broker:     broker,
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		maxClients: 10000,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Start begins listening for change events and broadcasting to clients
func (h *FeedStreamHandler) Start() error {
	h.startMu.Lock()
	defer h.startMu.Unlock()

	if h.started {
		return fmt.Errorf("feed stream handler already started")
	}

	go h.sendHeartbeats()

	go func() {
		err := h.broker.Subscribe(h.ctx, h.handleChange)
		if err != nil && h.ctx.Err() == nil {
			h.logger.Error("Feed stream subscription error", zap.Error(err))
		}
	}()

	h.started = true
	h.logger.Info("Feed stream handler started")
	return nil
}

// Stop stops the handler and disconnects all clients
func (h *FeedStreamHandler) Stop() {
	h.cancel()

	h.clients.Range(func(key, value any) bool {
		if client, ok := value.(*SSEClient); ok {
			close(client.Done)
		}
		return true
	})

	h.logger.Info("Feed stream handler stopped")
}

// handleChange forwards a change event to every connected client
func (h *FeedStreamHandler) handleChange(change realtime.ChangeEvent) {
	data, err := json.Marshal(change)
	if err != nil {
		h.logger.Error("Failed to marshal change event", zap.Error(err))
		return
	}

	h.broadcast(SSEMessage{
		Event: "post_change",
		Data:  string(data),
		ID:    strconv.FormatInt(change.Timestamp, 10),
	})
}

// broadcast sends a message to all connected clients. A client whose
// buffer is full has the message dropped; the periodic heartbeat plus
// client-side reconciliation recovers any missed changes.
func (h *FeedStreamHandler) broadcast(msg SSEMessage) {
	h.clients.Range(func(key, value any) bool {
		client, ok := value.(*SSEClient)
		if !ok {
			return true
		}

		select {
		case client.Chan <- msg:
		default:
			h.logger.Warn("Client channel full, dropping message",
				zap.String("client_id", client.ID))
		}
		return true
	})
}

func (h *FeedStreamHandler) sendHeartbeats() {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			h.broadcast(SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
		}
	}
}

// Stream is the SSE endpoint. It holds the connection open and writes
// change events until the client disconnects or the server shuts down.
func (h *FeedStreamHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.ClientCount() >= h.maxClients {
		c.JSON(http.StatusServiceUnavailable,
			dto.NewErrorResponse(dto.ErrCodeOverCapacity, "Maximum number of stream connections reached"))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	userID := middleware.GetJWTUserID(c)

	const messageBufferSize = 100
	client := &SSEClient{
		ID:     uuid.New().String(),
		UserID: userID,
		Chan:   make(chan SSEMessage, messageBufferSize),
		Done:   make(chan struct{}),
	}

	h.clients.Store(client.ID, client)
	defer func() {
		close(client.Chan)
		h.clients.Delete(client.ID)
	}()

	h.logger.Info("Stream client connected",
		zap.String("client_id", client.ID),
		zap.String("user_id", userID))

	h.sendEvent(c.Writer, SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"client_id":"%s","timestamp":%d}`, client.ID, time.Now().Unix()),
	})
	c.Writer.Flush()

	reqCtx := c.Request.Context()

	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("Stream client disconnected",
				zap.String("client_id", client.ID))
			return
		case <-client.Done:
			return
		case <-h.ctx.Done():
			return
		case msg, ok := <-client.Chan:
			if !ok {
				return
			}
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

// sendEvent writes an SSE event to the response writer
func (h *FeedStreamHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}

// ClientCount returns the number of connected SSE clients
func (h *FeedStreamHandler) ClientCount() int {
	count := 0
	h.clients.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// RegisterRoutes registers the stream route
func (h *FeedStreamHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/posts/stream", h.Stream)
}
