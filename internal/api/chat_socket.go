package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/jmahrt/portfolio/internal/chat"
)

// Frame types sent on /ws/chat.
const (
	FramePartial = "partial"
	FrameDone    = "done"
	FrameError   = "error"
)

// chatFrame is one server-to-client message on /ws/chat.
type chatFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const socketWriteTimeout = 10 * time.Second

// HandleSocket upgrades to a WebSocket and answers each {messages} frame with
// partial frames followed by a done frame. Requests on one socket are handled
// in order.
func (h *ChatHandler) HandleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	ctx := r.Context()
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("Chat socket closed by client")
			} else if ctx.Err() == nil {
				h.logger.Warn("Chat socket read error", "error", err)
			}
			return
		}

		var req ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := h.writeFrame(ctx, ws, FrameError, "Invalid messages format"); err != nil {
				return
			}
			continue
		}
		if details := req.Validate(); len(details) > 0 {
			if err := h.writeFrame(ctx, ws, FrameError, details[0].Field+": "+details[0].Message); err != nil {
				return
			}
			continue
		}

		if err := h.answer(ctx, ws, req); err != nil {
			h.logger.Debug("Chat socket write failed", "error", err)
			return
		}
	}
}

func (h *ChatHandler) answer(ctx context.Context, ws *websocket.Conn, req ChatRequest) error {
	var writeErr error
	onPartial := func(text string) {
		if writeErr == nil {
			writeErr = h.writeFrame(ctx, ws, FramePartial, text)
		}
	}

	text, err := h.respond(ctx, req.Messages, onPartial)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		var ierr *chat.InferenceError
		if !errors.As(err, &ierr) {
			h.logger.Error("Chat socket request failed", "error", err)
			return h.writeFrame(ctx, ws, FrameError, "Failed to process chat request")
		}
	}
	return h.writeFrame(ctx, ws, FrameDone, text)
}

func (h *ChatHandler) writeFrame(ctx context.Context, ws *websocket.Conn, kind, content string) error {
	data, err := json.Marshal(chatFrame{Type: kind, Content: content})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, socketWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
