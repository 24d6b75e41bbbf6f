package wsbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/creatorbridge/creatorbridge/internal/host"
)

// Dial connects an agent to a bridge endpoint.
func Dial(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// Serve answers the bridge's requests on conn from m until the connection
// closes or ctx is done. Requests are handled in arrival order.
func Serve(ctx context.Context, conn *websocket.Conn, m host.Messenger, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	stop := context.AfterFunc(ctx, func() {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer stop()

	for {
		var req Frame
		if err := conn.ReadJSON(&req); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}
		if req.Type != FrameRequest {
			continue
		}

		resp := answer(ctx, m, req)
		logger.Debug("answered editor request",
			zap.String("channel", req.Channel),
			zap.String("message", req.Message),
			zap.Bool("failed", resp.Error != ""),
		)
		if err := conn.WriteJSON(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

func answer(ctx context.Context, m host.Messenger, req Frame) Frame {
	resp := Frame{ID: req.ID, Type: FrameResponse}

	args := make([]any, len(req.Args))
	for i, a := range req.Args {
		args[i] = a
	}
	result, err := m.Request(ctx, req.Channel, req.Message, args...)
	if err != nil {
		var re *host.RequestError
		if errors.As(err, &re) {
			resp.Error = re.Reason
		} else {
			resp.Error = err.Error()
		}
		return resp
	}
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	resp.Result = result
	return resp
}
