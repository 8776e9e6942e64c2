package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"collabx/domain/chat"
	"collabx/gateway"
)

// Conn is the websocket transport behind a Controller. Writes are
// serialized with a mutex because event handlers and the UI goroutine may
// emit concurrently.
type Conn struct {
	ws  *websocket.Conn
	mu  sync.Mutex
	log *slog.Logger
}

// Dial opens an authenticated realtime connection. The token travels in
// the handshake query; a rejected handshake surfaces as a dial error,
// distinct from in-channel error events.
func Dial(ctx context.Context, serverURL, token string, log *slog.Logger) (*Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("handshake failed: %w", err)
	}
	return &Conn{ws: ws, log: log}, nil
}

func (c *Conn) Emit(event string, payload any) error {
	env, err := gateway.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(env)
}

// PresenceHandler receives relayed typing notifications.
type PresenceHandler func(event string, payload gateway.PresencePayload)

// Listen pumps inbound events into the controller until the connection
// drops or the context is canceled.
func (c *Conn) Listen(ctx context.Context, ctrl *Controller, onPresence PresenceHandler) error {
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		var env gateway.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.log.Warn("discarding malformed event", "error", err)
			continue
		}

		switch env.Event {
		case gateway.EventReceiveMessage:
			var payload gateway.ReceiveMessagePayload
			if err := json.Unmarshal(env.Data, &payload); err == nil {
				ctrl.HandleReceiveMessage(payload)
			}
		case gateway.EventMessageSent:
			var payload gateway.MessageSentPayload
			if err := json.Unmarshal(env.Data, &payload); err == nil {
				ctrl.HandleMessageSent(payload)
			}
		case gateway.EventError:
			var payload gateway.ErrorPayload
			if err := json.Unmarshal(env.Data, &payload); err == nil {
				ctrl.HandleError(payload)
			}
		case gateway.EventUserTyping, gateway.EventUserStoppedTyping:
			if onPresence != nil {
				var payload gateway.PresencePayload
				if err := json.Unmarshal(env.Data, &payload); err == nil {
					onPresence(env.Event, payload)
				}
			}
		default:
			c.log.Debug("ignoring unknown event", "event", env.Event)
		}
	}
}

func (c *Conn) Close() error {
	return c.ws.Close()
}

// HTTPThreadFetcher loads the thread list over the REST surface.
type HTTPThreadFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPThreadFetcher(baseURL, token string) *HTTPThreadFetcher {
	return &HTTPThreadFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPThreadFetcher) FetchThreads() ([]chat.Thread, error) {
	req, err := http.NewRequest(http.MethodGet, f.BaseURL+"/api/chats", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.Token)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching chats", resp.StatusCode)
	}

	var threads []chat.Thread
	if err := json.NewDecoder(resp.Body).Decode(&threads); err != nil {
		return nil, err
	}
	return threads, nil
}
