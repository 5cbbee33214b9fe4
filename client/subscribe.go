package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/weddingbets/backend/internal/apperr"
	"github.com/weddingbets/backend/internal/livesync"
	"github.com/weddingbets/backend/internal/realtime"
)

var _ livesync.Subscriber = (*Client)(nil)

// Subscribe opens the push feed of topic ("room:<id>", "poll:<id>" or "game:<id>").
// A refused subscription returns the server's error record.
func (c *Client) Subscribe(ctx context.Context, topic string) (livesync.Feed, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return nil, apperr.Server("build websocket url", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("topic", topic)
	q.Set("token", c.Token())
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, refusal(resp)
		}
		return nil, apperr.Server("websocket dial failed", err)
	}

	f := &wsFeed{
		conn:    conn,
		events:  make(chan realtime.WSMessage, 64),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go f.read()
	return f, nil
}

func refusal(resp *http.Response) error {
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		return env.Error
	}
	return apperr.Server("websocket refused: "+strings.TrimSpace(resp.Status), nil)
}

type wsFeed struct {
	conn    *websocket.Conn
	events  chan realtime.WSMessage
	closing chan struct{}
	done    chan struct{}
	once    sync.Once
}

func (f *wsFeed) Events() <-chan realtime.WSMessage { return f.events }

// read delivers frames until the connection fails or is closed. Pings are answered by the
// default handler while reading.
func (f *wsFeed) read() {
	defer close(f.done)
	defer close(f.events)
	for {
		var msg realtime.WSMessage
		if err := f.conn.ReadJSON(&msg); err != nil {
			return
		}
		select {
		case f.events <- msg:
		case <-f.closing:
			return
		}
	}
}

func (f *wsFeed) Close() error {
	var err error
	f.once.Do(func() {
		close(f.closing)
		_ = f.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = f.conn.Close()
	})
	<-f.done
	return err
}
