// Package gateway authenticates realtime connections and routes chat
// events between user channels over websockets.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"collabx/auth"
	"collabx/domain/chat"
	"collabx/observability"
	"collabx/services"
)

type Gateway struct {
	registry        *Registry
	chat            services.IChatService
	tokens          *auth.TokenManager
	stats           *observability.Stats
	log             *slog.Logger
	bufferSize      int
	deliveryTimeout time.Duration
	upgrader        websocket.Upgrader
}

func NewGateway(
	registry *Registry,
	chatService services.IChatService,
	tokens *auth.TokenManager,
	stats *observability.Stats,
	log *slog.Logger,
	bufferSize int,
	deliveryTimeout time.Duration,
) *Gateway {
	return &Gateway{
		registry:        registry,
		chat:            chatService,
		tokens:          tokens,
		stats:           stats,
		log:             log,
		bufferSize:      bufferSize,
		deliveryTimeout: deliveryTimeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle authenticates the handshake and runs the connection until the
// client disconnects. An absent or invalid token refuses the connection
// outright; no channel is joined.
func (g *Gateway) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication error: no token provided"})
		return
	}

	claims, err := g.tokens.Validate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication error: invalid token"})
		return
	}
	userID, err := chat.ParseUserID(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication error: invalid identity"})
		return
	}

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sink := NewChannelSink(g.log, g.bufferSize, g.deliveryTimeout)
	g.registry.Subscribe(userID, sink)
	g.stats.ConnectionOpened()
	g.log.Info("user connected", "user_id", userID, "kind", claims.Kind)

	go g.writePump(conn, sink)
	g.readLoop(c.Request.Context(), conn, claims, userID, sink)

	g.registry.Unsubscribe(userID, sink)
	sink.Close()
	_ = conn.Close()
	g.stats.ConnectionClosed()
	g.log.Info("user disconnected", "user_id", userID)
}

// readLoop consumes inbound frames until the connection drops. Events are
// processed one at a time per connection, so a given thread is never
// mutated concurrently from the same client.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, claims *auth.Claims, userID chat.UserID, sink *ChannelSink) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			g.sendError(ctx, sink, "invalid event format", "")
			continue
		}
		g.dispatch(ctx, claims, userID, sink, env)
	}
}

// dispatch routes one inbound event. Every failure, panics included, ends
// as an error event on the sender's own channel; nothing can crash the
// connection or the process.
func (g *Gateway) dispatch(ctx context.Context, claims *auth.Claims, userID chat.UserID, sink *ChannelSink, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			g.stats.IncrEventErrors()
			g.log.Error("panic while handling event", "event", env.Event, "user_id", userID, "panic", r)
			g.sendError(ctx, sink, "internal error", "")
		}
	}()

	switch env.Event {
	case EventSendMessage:
		g.handleSendMessage(ctx, claims, userID, sink, env.Data)
	case EventTypingStart:
		g.handleTyping(ctx, claims, userID, env.Data, EventUserTyping, true)
	case EventTypingStop:
		g.handleTyping(ctx, claims, userID, env.Data, EventUserStoppedTyping, false)
	default:
		g.log.Debug("ignoring unknown event", "event", env.Event, "user_id", userID)
	}
}

func (g *Gateway) handleSendMessage(ctx context.Context, claims *auth.Claims, userID chat.UserID, sink *ChannelSink, data []byte) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		g.stats.IncrEventErrors()
		g.sendError(ctx, sink, "invalid send_message payload", "")
		return
	}

	// Canonical form on ingress; on parse failure the raw id is passed
	// through so the service reports the right validation error.
	recipientID, err := chat.ParseUserID(payload.RecipientID)
	if err != nil {
		recipientID = chat.UserID(payload.RecipientID)
	}

	cmd := chat.SendMessageCommand{
		Sender: chat.Participant{
			ID:   userID,
			Kind: chat.Kind(claims.Kind),
			Name: payload.SenderName,
		},
		Recipient: chat.Participant{
			ID:   recipientID,
			Kind: chat.Kind(payload.RecipientKind),
			Name: payload.RecipientName,
		},
		Content:      payload.Content,
		ClientTempID: payload.ClientTempID,
	}

	thread, message, err := g.chat.SendMessage(ctx, cmd)
	if err != nil {
		g.stats.IncrEventErrors()
		g.sendError(ctx, sink, fmt.Sprintf("failed to send message: %v", err), payload.ClientTempID)
		return
	}

	senderName := payload.SenderName
	if senderName == "" {
		senderName = "Unknown"
	}

	receiveEnv, err := NewEnvelope(EventReceiveMessage, ReceiveMessagePayload{
		ThreadID:   thread.ID,
		Message:    message,
		SenderID:   userID.String(),
		SenderName: senderName,
	})
	if err == nil {
		if delivered := g.registry.Publish(ctx, recipientID, receiveEnv); delivered == 0 {
			g.stats.IncrDeliveriesMissed()
			g.log.Debug("recipient offline, no delivery", "recipient_id", recipientID)
		}
	}

	// Confirmation goes to the originating connection only, so the client
	// that holds the optimistic copy is the one that reconciles it.
	sentEnv, err := NewEnvelope(EventMessageSent, MessageSentPayload{
		ThreadID:     thread.ID,
		Message:      message,
		RecipientID:  recipientID.String(),
		ClientTempID: payload.ClientTempID,
	})
	if err == nil {
		_ = sink.Consume(ctx, sentEnv)
	}
	g.stats.IncrMessagesRouted()
}

// handleTyping relays fire-and-forget typing notifications. Nothing is
// persisted or acknowledged; an offline recipient simply misses them.
func (g *Gateway) handleTyping(ctx context.Context, claims *auth.Claims, userID chat.UserID, data []byte, outEvent string, withName bool) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}
	recipientID, err := chat.ParseUserID(payload.RecipientID)
	if err != nil {
		return
	}

	presence := PresencePayload{SenderID: userID.String()}
	if withName {
		presence.SenderName = claims.Email
		if presence.SenderName == "" {
			presence.SenderName = "Someone"
		}
	}

	env, err := NewEnvelope(outEvent, presence)
	if err != nil {
		return
	}
	g.registry.Publish(ctx, recipientID, env)
}

func (g *Gateway) sendError(ctx context.Context, sink *ChannelSink, message, clientTempID string) {
	env, err := NewEnvelope(EventError, ErrorPayload{Message: message, ClientTempID: clientTempID})
	if err != nil {
		return
	}
	_ = sink.Consume(ctx, env)
}

func (g *Gateway) writePump(conn *websocket.Conn, sink *ChannelSink) {
	for {
		select {
		case env := <-sink.Events:
			if err := conn.WriteJSON(env); err != nil {
				// Closing the connection unblocks the read loop, which owns
				// the unsubscribe and sink shutdown.
				_ = conn.Close()
				return
			}
		case <-sink.done:
			return
		}
	}
}
