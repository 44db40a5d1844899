package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/services"
	"chat-relay/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// connection binds one upgraded websocket to its verified identity and
// buffered sink for the connection's lifetime.
type connection struct {
	id   uuid.UUID
	user domain.User
	ws   *websocket.Conn
	sink *sink.Buffered
	log  *slog.Logger
	srv  *Server
}

// readLoop blocks until the client disconnects or a network error
// occurs. Every inbound frame is decoded and dispatched; a handler
// failure becomes a scoped error event on this connection only, never
// a crash.
func (c *connection) readLoop(ctx context.Context) {
	c.ws.SetReadLimit(c.srv.cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.srv.cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.srv.cfg.PongTimeout))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("connection closed unexpectedly", "conn_id", c.id, "error", err)
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.fail(ctx, "frame", fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err))
			continue
		}
		if err := c.dispatch(ctx, env); err != nil {
			c.fail(ctx, env.Type, err)
		}
	}
}

// writePump serializes outbound events onto the wire in the order they
// were queued on this connection's sink.
func (c *connection) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.srv.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage, nil, time.Now().Add(c.srv.cfg.WriteTimeout))
			return
		case e := <-c.sink.Events:
			frame, err := encodeEvent(e)
			if err != nil {
				c.log.Error("event encoding failed", "kind", e.Kind(), "error", err)
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.srv.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("write failed, dropping connection", "conn_id", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.srv.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch is the single decision point for the closed set of inbound
// event types.
func (c *connection) dispatch(ctx context.Context, env envelope) error {
	actor := c.user.Display()

	switch env.Type {
	case inJoinConversation:
		var p conversationPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		conversationID, err := parseID(p.ConversationID)
		if err != nil {
			return err
		}
		if err := c.srv.messages.EnsureParticipant(conversationID, actor.UserID); err != nil {
			return err
		}
		c.log.Debug("joined conversation", "user_id", actor.UserID, "conversation_id", conversationID)
		return nil

	case inLeaveConversation:
		var p conversationPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		// Fan-out is addressed through the registry, not rooms; leaving
		// is informational.
		c.log.Debug("left conversation", "user_id", actor.UserID, "conversation_id", p.ConversationID)
		return nil

	case inSendMessage:
		var p sendMessagePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		if p.Text == "" && len(p.Media) == 0 {
			return fmt.Errorf("%w: empty message", errors.ErrInvalidPayload)
		}
		conversationID, err := parseID(p.ConversationID)
		if err != nil {
			return err
		}
		replyTo, err := parseOptionalID(p.ReplyTo)
		if err != nil {
			return err
		}
		_, err = c.srv.messages.Submit(ctx, servicesSubmit(conversationID, actor, p, replyTo))
		return err

	case inEditMessage:
		var p editMessagePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		messageID, err := parseID(p.MessageID)
		if err != nil {
			return err
		}
		_, err = c.srv.messages.Edit(ctx, messageID, actor.UserID, p.NewText)
		return err

	case inDeleteMessage:
		var p deleteMessagePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		messageID, err := parseID(p.MessageID)
		if err != nil {
			return err
		}
		if p.Scope == "everyone" {
			return c.srv.messages.DeleteForEveryone(ctx, messageID, actor.UserID)
		}
		return c.srv.messages.DeleteForMe(messageID, actor.UserID)

	case inReactMessage:
		var p reactMessagePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		messageID, err := parseID(p.MessageID)
		if err != nil {
			return err
		}
		_, err = c.srv.messages.React(ctx, messageID, actor.UserID, p.Emoji)
		return err

	case inMessageSeen:
		var p messageSeenPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		messageID, err := parseID(p.MessageID)
		if err != nil {
			return err
		}
		return c.srv.messages.MarkSeen(ctx, messageID, actor.UserID)

	case inTypingStart:
		var p conversationPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		conversationID, err := parseID(p.ConversationID)
		if err != nil {
			return err
		}
		return c.srv.messages.TypingStarted(ctx, conversationID, actor)

	case inTypingStop:
		var p conversationPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		conversationID, err := parseID(p.ConversationID)
		if err != nil {
			return err
		}
		return c.srv.messages.TypingStopped(ctx, conversationID, actor.UserID)

	case inCallInitiate:
		var p callInitiatePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		conversationID, err := parseID(p.ConversationID)
		if err != nil {
			return err
		}
		_, err = c.srv.calls.Initiate(ctx, actor, p.RecipientID, conversationID, domain.CallType(p.CallType))
		return err

	case inCallAccept:
		var p callAcceptPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		callID, err := parseOptionalID(p.CallID)
		if err != nil {
			return err
		}
		return c.srv.calls.Accept(ctx, actor, p.CallerID, callID)

	case inCallReject:
		var p callRejectPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		callID, err := parseOptionalID(p.CallID)
		if err != nil {
			return err
		}
		return c.srv.calls.Reject(ctx, actor.UserID, p.CallerID, p.Reason, callID)

	case inCallEnd:
		var p callEndPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		return c.srv.calls.Terminate(ctx, actor.UserID, p.PeerID)

	case inCallRecordEnd:
		var p callRecordEndPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		callID, err := parseID(p.CallID)
		if err != nil {
			return err
		}
		return c.srv.calls.RecordEnd(callID, domain.EndReason(p.Reason))

	case inCallNoAnswer:
		var p callNoAnswerPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		callID, err := parseOptionalID(p.CallID)
		if err != nil {
			return err
		}
		return c.srv.calls.NoAnswer(ctx, actor, p.RecipientID, callID)

	case inCallBusy:
		var p callBusyPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		return c.srv.calls.Busy(ctx, actor.UserID, p.CallerID)

	case inWebRTCOffer, inWebRTCAnswer, inWebRTCICE:
		var p signalPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		return c.srv.calls.RelaySignal(ctx, signalKind(env.Type), actor.UserID, p.RecipientID, p.Payload)

	default:
		return fmt.Errorf("%w: unknown event %q", errors.ErrInvalidPayload, env.Type)
	}
}

func servicesSubmit(conversationID uuid.UUID, actor domain.DisplayInfo,
	p sendMessagePayload, replyTo *uuid.UUID) services.SubmitCommand {
	return services.SubmitCommand{
		ConversationID: conversationID,
		SenderID:       actor.UserID,
		Sender:         actor,
		Text:           p.Text,
		Media:          p.media(),
		ReplyTo:        replyTo,
		ForwardedFrom:  p.ForwardedFrom,
	}
}

func signalKind(inbound string) event.Kind {
	switch inbound {
	case inWebRTCAnswer:
		return event.KindWebRTCAnswer
	case inWebRTCICE:
		return event.KindWebRTCICE
	default:
		return event.KindWebRTCOffer
	}
}

// fail reports a handler failure back to this connection only, as a
// scoped error event with a machine-readable reason.
func (c *connection) fail(ctx context.Context, scope string, err error) {
	c.log.Info("event rejected", "user_id", c.user.ID, "scope", scope, "error", err)
	_ = c.sink.Consume(ctx, event.Error{Scope: scope, Reason: errors.Reason(err)})
}
