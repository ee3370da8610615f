package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Frame formats
const (
	FormatJSON  = "json"
	FormatProto = "proto"
)

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
)

// WSHandler streams broker events over WebSocket.
// ?format=proto switches from JSON text frames to protobuf Struct binary frames.
type WSHandler struct {
	broker       *Broker
	logger       *zap.Logger
	upgrader     websocket.Upgrader
	PingInterval time.Duration
}

// NewWSHandler creates a WebSocket endpoint backed by broker
func NewWSHandler(broker *Broker, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		broker: broker,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		PingInterval: defaultPingInterval,
	}
}

// wsConn serialises writes; gorilla allows one concurrent writer
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// ping carries the send time as a protobuf Timestamp
func (c *wsConn) ping() error {
	data, err := proto.Marshal(timestamppb.Now())
	if err != nil {
		return fmt.Errorf("failed to marshal ping: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, data, time.Now().Add(writeWait))
}

// ServeHTTP upgrades the connection and pumps events until either side closes
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	format := FormatJSON
	if r.URL.Query().Get("format") == FormatProto {
		format = FormatProto
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsConn{conn: conn}
	defer conn.Close()

	sub := h.broker.Subscribe("ws")
	defer h.broker.Unsubscribe(sub)

	// Reader only watches for close frames
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := h.PingInterval
	if interval <= 0 {
		interval = defaultPingInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				h.logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		case ev, ok := <-sub.Events():
			if !ok {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := h.send(c, format, ev); err != nil {
				h.logger.Debug("Failed to write event", zap.Error(err))
				return
			}
		}
	}
}

func (h *WSHandler) send(c *wsConn, format string, ev Event) error {
	if format == FormatProto {
		data, err := EncodeProto(ev)
		if err != nil {
			return err
		}
		return c.write(websocket.BinaryMessage, data)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, data)
}

// EncodeProto renders an event as a serialized google.protobuf.Struct
// with fields event, payload and timestamp (RFC 3339).
func EncodeProto(ev Event) ([]byte, error) {
	st, err := EventStruct(ev)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(st)
}

// EventStruct converts an event to a protobuf Struct via its JSON form
func EventStruct(ev Event) (*structpb.Struct, error) {
	raw, err := json.Marshal(ev.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	st, err := structpb.NewStruct(map[string]interface{}{
		"event":     ev.Event,
		"payload":   payload,
		"timestamp": ev.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return st, nil
}
