package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"

	"github.com/google/uuid"
)

type ICallService interface {
	Initiate(ctx context.Context, caller domain.DisplayInfo, recipientID string,
		conversationID uuid.UUID, callType domain.CallType) (domain.CallSession, error)
	Accept(ctx context.Context, recipient domain.DisplayInfo, callerID string, callID *uuid.UUID) error
	Reject(ctx context.Context, recipientID, callerID, reason string, callID *uuid.UUID) error
	Terminate(ctx context.Context, userID, peerID string) error
	RelaySignal(ctx context.Context, kind event.Kind, senderID, recipientID string, payload json.RawMessage) error
	NoAnswer(ctx context.Context, caller domain.DisplayInfo, recipientID string, callID *uuid.UUID) error
	Busy(ctx context.Context, recipientID, callerID string) error
	RecordEnd(callID uuid.UUID, reason domain.EndReason) error
}

// CallService relays the call-signaling handshake between exactly two
// identities and keeps the CallSession lifecycle honest. Signaling
// payloads pass through opaquely; the relay never inspects them.
type CallService struct {
	log           *slog.Logger
	registry      contract.IRegistry
	conversations contract.IConversationRepository
	calls         contract.ICallRepository
}

func NewCallService(log *slog.Logger, registry contract.IRegistry,
	conversations contract.IConversationRepository, calls contract.ICallRepository) *CallService {
	return &CallService{
		log:           log,
		registry:      registry,
		conversations: conversations,
		calls:         calls,
	}
}

// Initiate verifies the caller's membership and the recipient's
// reachability, then creates the session in ringing and notifies both
// sides. Reachability is checked before persistence: an unreachable
// recipient leaves no session behind.
func (s *CallService) Initiate(ctx context.Context, caller domain.DisplayInfo, recipientID string,
	conversationID uuid.UUID, callType domain.CallType) (domain.CallSession, error) {
	ok, err := s.conversations.IsParticipant(conversationID, caller.UserID)
	if err != nil {
		return domain.CallSession{}, err
	}
	if !ok {
		return domain.CallSession{}, fmt.Errorf("%w: %s", errors.ErrNotAParticipant, caller.UserID)
	}
	if !s.registry.IsOnline(recipientID) {
		return domain.CallSession{}, errors.ErrRecipientUnreachable
	}

	call := domain.CallSession{
		ID:          uuid.New(),
		CallerID:    caller.UserID,
		RecipientID: recipientID,
		Type:        callType,
		Status:      domain.CallRinging,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.calls.CreateCall(call); err != nil {
		return domain.CallSession{}, err
	}

	s.notify(ctx, recipientID, event.CallIncoming{
		CallID:         call.ID,
		Caller:         caller,
		CallType:       callType,
		ConversationID: conversationID,
	})
	s.notify(ctx, caller.UserID, event.CallRinging{CallID: call.ID, RecipientID: recipientID})
	return call, nil
}

// Accept notifies the caller and commits the ringing -> connected
// transition. A client that did not echo the session id back gets it
// resolved from the ringing pair instead. A failed transition (late
// accept after the caller recorded a timeout) still relays the
// notification: signaling stays best-effort.
func (s *CallService) Accept(ctx context.Context, recipient domain.DisplayInfo, callerID string, callID *uuid.UUID) error {
	if !s.registry.IsOnline(callerID) {
		return errors.ErrCallerUnavailable
	}
	if callID == nil {
		if session, err := s.calls.FindRingingCall(callerID, recipient.UserID); err == nil {
			callID = &session.ID
		} else {
			s.log.Debug("accept without a resolvable session",
				"caller_id", callerID, "recipient_id", recipient.UserID, "error", err)
		}
	}
	if callID != nil {
		if _, err := s.calls.TransitionCall(*callID, domain.CallConnected, ""); err != nil {
			s.log.Warn("accept could not mark call connected", "call_id", *callID, "error", err)
		}
	}
	s.notify(ctx, callerID, event.CallAccepted{Recipient: recipient})
	return nil
}

// Reject notifies the caller. A late reject after the caller gave up is
// delivered if possible and silently dropped otherwise; this is the one
// relay operation that does not report unreachability back.
func (s *CallService) Reject(ctx context.Context, recipientID, callerID, reason string, callID *uuid.UUID) error {
	if callID != nil {
		if _, err := s.calls.TransitionCall(*callID, domain.CallRejected, domain.EndCancelled); err != nil {
			s.log.Debug("reject transition skipped", "call_id", *callID, "error", err)
		}
	}
	if reason == "" {
		reason = "call declined"
	}
	s.notify(ctx, callerID, event.CallRejected{RecipientID: recipientID, Reason: reason})
	return nil
}

// Terminate tells the peer the call is over. Symmetric from either
// party and not tied to a specific session.
func (s *CallService) Terminate(ctx context.Context, userID, peerID string) error {
	if !s.registry.IsOnline(peerID) {
		return errors.ErrRecipientUnreachable
	}
	s.notify(ctx, peerID, event.CallEnded{PeerID: userID, Reason: "call ended by other user"})
	return nil
}

// RelaySignal forwards an opaque offer/answer/ICE payload to every live
// connection of the recipient. An unreachable peer is reported back to
// the initiator, never silently swallowed.
func (s *CallService) RelaySignal(ctx context.Context, kind event.Kind, senderID, recipientID string,
	payload json.RawMessage) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: signaling payload is required", errors.ErrInvalidPayload)
	}
	if !s.registry.IsOnline(recipientID) {
		return errors.ErrRecipientUnreachable
	}
	s.notify(ctx, recipientID, event.Signal{SignalKind: kind, SenderID: senderID, Payload: payload})
	return nil
}

// NoAnswer is the caller-driven timeout. When the session reference
// resolves, the session moves ringing -> missed so it is not stuck
// ringing forever. The recipient's connections get a missed-call
// notice; a recipient with no connections left is reported back to the
// caller after the transition is recorded.
func (s *CallService) NoAnswer(ctx context.Context, caller domain.DisplayInfo, recipientID string, callID *uuid.UUID) error {
	if callID != nil {
		if _, err := s.calls.TransitionCall(*callID, domain.CallMissed, domain.EndMissed); err != nil {
			s.log.Debug("no-answer transition skipped", "call_id", *callID, "error", err)
		}
	}
	if !s.registry.IsOnline(recipientID) {
		return errors.ErrRecipientUnreachable
	}
	s.notify(ctx, recipientID, event.CallMissed{Caller: caller})
	return nil
}

// Busy is the recipient-driven busy signal while already in a call.
func (s *CallService) Busy(ctx context.Context, recipientID, callerID string) error {
	if !s.registry.IsOnline(callerID) {
		return errors.ErrCallerUnavailable
	}
	s.notify(ctx, callerID, event.CallBusy{RecipientID: recipientID})
	return nil
}

// RecordEnd is the only operation that persists the connected -> ended
// transition, stamping end time and reason.
func (s *CallService) RecordEnd(callID uuid.UUID, reason domain.EndReason) error {
	_, err := s.calls.TransitionCall(callID, domain.CallEnded, reason)
	return err
}

func (s *CallService) notify(ctx context.Context, userID string, e event.DomainEvent) {
	for _, sink := range s.registry.SinksOf(userID) {
		if err := sink.Consume(ctx, e); err != nil {
			s.log.Debug("call event dropped", "user_id", userID,
				"kind", e.Kind(), "error", err)
		}
	}
}
