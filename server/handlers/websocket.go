package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"leafguard/server/imaging"
	"leafguard/server/processor"
)

// WebSocketHandler serves streaming classification: clients push camera
// frames as data URLs and get a prediction envelope back per frame.
type WebSocketHandler struct {
	pipeline *processor.Pipeline
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

type ClientMessage struct {
	Type      string `json:"type"`
	Data      string `json:"data"`
	CropType  string `json:"crop_type"`
	Timestamp int64  `json:"timestamp"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewWebSocketHandler(pipeline *processor.Pipeline, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		pipeline: pipeline,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection", zap.Error(err))
		return
	}
	defer conn.Close()

	clientIP := c.ClientIP()
	h.logger.Info("WebSocket client connected", zap.String("client_ip", clientIP))

	conn.SetReadLimit(10 * 1024 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}

		switch msg.Type {
		case "frame":
			h.handleFrame(conn, &msg)
		case "ping":
			h.send(conn, ServerMessage{Type: "pong"})
		default:
			h.send(conn, ServerMessage{Type: "error", Data: "unknown message type"})
		}
	}

	h.logger.Info("WebSocket client disconnected", zap.String("client_ip", clientIP))
}

func (h *WebSocketHandler) handleFrame(conn *websocket.Conn, msg *ClientMessage) {
	raw, err := imaging.DecodePayload(msg.Data)
	if err != nil {
		h.send(conn, ServerMessage{Type: "error", Data: "invalid frame data"})
		return
	}

	cropLabel := msg.CropType
	if cropLabel == "" {
		cropLabel = "Unknown Crop"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := h.pipeline.Predict(ctx, &processor.Job{
		ImageBytes: raw,
		CropLabel:  cropLabel,
		RequestID:  uuid.NewString(),
	})
	if err != nil {
		h.logger.Error("Frame prediction failed", zap.Error(err))
		h.send(conn, ServerMessage{Type: "error", Data: "prediction failed"})
		return
	}

	h.send(conn, ServerMessage{Type: "prediction", Data: result})
}

func (h *WebSocketHandler) send(conn *websocket.Conn, msg ServerMessage) {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("WebSocket write failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
