package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"tradesim/internal/model"
)

// WS reads JSON-encoded candles from a websocket feed, one candle per text
// message. A normal close from the server ends the source.
type WS struct {
	conn *websocket.Conn
}

// DialWS connects to the given websocket URL.
func DialWS(ctx context.Context, url string) (*WS, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial %s: %w", url, err)
	}
	return &WS{conn: conn}, nil
}

func (w *WS) Next(ctx context.Context) (model.Candle, bool, error) {
	if deadline, ok := ctx.Deadline(); ok {
		w.conn.SetReadDeadline(deadline)
	}
	_, msg, err := w.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return model.Candle{}, false, nil
		}
		return model.Candle{}, false, fmt.Errorf("ws read: %w", err)
	}
	c, err := model.DecodeCandle(msg)
	if err != nil {
		return model.Candle{}, false, fmt.Errorf("ws decode: %w", err)
	}
	return c, true, nil
}

func (w *WS) Close() error {
	w.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.conn.Close()
}
